// Package builtin ships a small template set compiled into the binary. It is the
// last fallback when neither the cache, the snapshot nor the network has templates.
package builtin

import (
	"context"
	"embed"
	"io/fs"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/fssource"
	"github.com/skosovsky/promptstash/ingest"
)

//go:embed templates
var files embed.FS

// FS returns the embedded template tree rooted at the templates directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Templates parses the embedded set with origin promptstash.OriginBuiltin.
func Templates(ctx context.Context) (promptstash.Collection, error) {
	ing, err := ingest.New(fssource.New(FS()), ingest.WithOrigin(promptstash.OriginBuiltin))
	if err != nil {
		return nil, err
	}
	return ing.Ingest(ctx)
}
