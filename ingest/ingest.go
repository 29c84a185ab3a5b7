// Package ingest turns a listing of template files into a Collection. Each file is
// fetched, parsed and dated concurrently; a file that fails any step is logged and
// skipped so one bad template never empties the catalog.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/manifest"
)

// DefaultConcurrency bounds parallel per-file work.
const DefaultConcurrency = 8

// Lister enumerates candidate template files.
type Lister interface {
	ListTemplateFiles(ctx context.Context) ([]promptstash.FileRef, error)
}

// ContentFetcher returns the raw bytes of one file.
type ContentFetcher interface {
	FetchRaw(ctx context.Context, path string) ([]byte, error)
}

// DateResolver returns a display date for one file. It never fails.
type DateResolver interface {
	LastModified(ctx context.Context, path string) string
}

// Source is everything the pipeline needs from a backend.
type Source interface {
	Lister
	ContentFetcher
	DateResolver
}

// Linker is optionally implemented by a Source to provide browsable file URLs.
type Linker interface {
	FileURL(path string) string
}

// Option configures Ingester.
type Option func(*Ingester)

// WithConcurrency sets how many files are processed at once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithOrigin sets the origin stamped on every template. Default is promptstash.OriginNetwork.
func WithOrigin(o promptstash.Origin) Option {
	return func(i *Ingester) {
		i.origin = o
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(i *Ingester) {
		if l != nil {
			i.logger = l
		}
	}
}

// Ingester runs the pipeline against one Source.
type Ingester struct {
	src         Source
	concurrency int
	origin      promptstash.Origin
	logger      *slog.Logger
}

// New creates an Ingester.
func New(src Source, opts ...Option) (*Ingester, error) {
	if src == nil {
		return nil, fmt.Errorf("ingest: source must not be nil")
	}
	i := &Ingester{
		src:         src,
		concurrency: DefaultConcurrency,
		origin:      promptstash.OriginNetwork,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Ingest lists, fetches and parses every template file. Only a listing failure or
// ctx cancellation returns an error; per-file failures are skipped. The result keeps
// listing order.
func (i *Ingester) Ingest(ctx context.Context) (promptstash.Collection, error) {
	refs, err := i.src.ListTemplateFiles(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]*promptstash.Template, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, ref := range refs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			tpl, err := i.one(gctx, ref)
			if err != nil {
				i.logger.Warn("skipping template", "path", ref.Path, "err", err)
				return nil
			}
			results[idx] = tpl
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	col := make(promptstash.Collection, 0, len(results))
	for _, tpl := range results {
		if tpl != nil {
			col = append(col, *tpl)
		}
	}
	i.logger.Debug("ingested templates", "listed", len(refs), "parsed", len(col))
	return col, nil
}

func (i *Ingester) one(ctx context.Context, ref promptstash.FileRef) (*promptstash.Template, error) {
	data, err := i.src.FetchRaw(ctx, ref.Path)
	if err != nil {
		return nil, err
	}
	tpl, err := manifest.Parse(data, ref.Path)
	if err != nil {
		return nil, err
	}
	if ref.SHA != "" {
		tpl.ID = ref.SHA
	}
	tpl.CommitShort = promptstash.ShortSHA(tpl.ID)
	tpl.LastUpdated = i.src.LastModified(ctx, ref.Path)
	tpl.Origin = i.origin
	if l, ok := i.src.(Linker); ok {
		tpl.HTMLURL = l.FileURL(ref.Path)
	}
	return tpl, nil
}
