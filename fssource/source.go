// Package fssource serves template files from an fs.FS: a checked-out directory via
// os.DirFS, or templates compiled into the binary via embed.FS. It implements the
// same listing, fetch and date contract as the network sources, so the ingestion
// pipeline treats a local folder exactly like a remote repository.
package fssource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/manifest"
)

// Source reads templates under root of fsys.
type Source struct {
	fsys fs.FS
	root string
}

// Option configures Source.
type Option func(*Source)

// WithRoot restricts the walk to a subdirectory. Paths stay relative to it.
func WithRoot(root string) Option {
	return func(s *Source) {
		s.root = strings.Trim(root, "/")
	}
}

// New creates a Source over fsys.
func New(fsys fs.FS, opts ...Option) *Source {
	s := &Source{fsys: fsys, root: "."}
	for _, opt := range opts {
		opt(s)
	}
	if s.root == "" {
		s.root = "."
	}
	if s.root != "." {
		if sub, err := fs.Sub(s.fsys, s.root); err == nil {
			s.fsys = sub
		}
	}
	return s
}

// Dir creates a Source over a directory on disk.
func Dir(dir string) *Source {
	return New(os.DirFS(dir))
}

// ListTemplateFiles walks the tree and returns every .yaml/.yml file. SHA is the
// git blob id of the content, so ids match what a repository listing would report.
// Hidden directories are skipped.
func (s *Source) ListTemplateFiles(ctx context.Context) ([]promptstash.FileRef, error) {
	var refs []promptstash.FileRef
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !manifest.IsTemplatePath(p) {
			return nil
		}
		data, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return err
		}
		refs = append(refs, promptstash.FileRef{Path: p, SHA: manifest.BlobID(data), Size: int64(len(data))})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: walk templates: %w", promptstash.ErrUpstream, err)
	}
	return refs, nil
}

// FetchRaw reads one file.
func (s *Source) FetchRaw(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, path.Clean(strings.TrimPrefix(p, "/")))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", promptstash.ErrUpstream, p, err)
	}
	return data, nil
}

// LastModified formats the file modification time, or returns promptstash.UnknownDate
// when the file system has none (embed.FS).
func (s *Source) LastModified(_ context.Context, p string) string {
	info, err := fs.Stat(s.fsys, path.Clean(strings.TrimPrefix(p, "/")))
	if err != nil || info.ModTime().IsZero() {
		return promptstash.UnknownDate
	}
	return info.ModTime().Format(promptstash.DateLayout)
}
