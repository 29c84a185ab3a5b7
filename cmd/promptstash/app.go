package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/builtin"
	"github.com/skosovsky/promptstash/cache"
	"github.com/skosovsky/promptstash/catalog"
	"github.com/skosovsky/promptstash/fssource"
	"github.com/skosovsky/promptstash/githubsource"
	"github.com/skosovsky/promptstash/gitsource"
	"github.com/skosovsky/promptstash/ingest"
	"github.com/skosovsky/promptstash/internal/config"
	"github.com/skosovsky/promptstash/kvstore"
	"github.com/skosovsky/promptstash/prefs"
	"github.com/skosovsky/promptstash/snapshot"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     kvstore.Store
	ingester  *ingest.Ingester
	cache     *cache.Manager
	favorites *prefs.Favorites
	recents   *prefs.Recents
	variables *prefs.Variables
	profile   *prefs.Profile
	tracker   promptstash.Tracker
	closers   []io.Closer
}

func newApp(ctx context.Context, configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: cfg.NewLogger(os.Stderr)}
	a.tracker = promptstash.LogTracker{Logger: a.logger}

	var store kvstore.Store
	if cfg.Store.Driver == "file" {
		store = kvstore.NewFile(cfg.Store.DSN, kvstore.WithFileLogger(a.logger))
	} else if store, err = kvstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN); err != nil {
		return nil, err
	}
	a.store = store
	if c, ok := store.(kvstore.Closer); ok {
		a.closers = append(a.closers, c)
	}

	src, err := a.newSource()
	if err != nil {
		a.Close()
		return nil, err
	}
	origin := promptstash.OriginNetwork
	if cfg.Source == config.SourceDir {
		origin = promptstash.OriginBuiltin
	}
	a.ingester, err = ingest.New(src,
		ingest.WithConcurrency(cfg.Ingest.Concurrency),
		ingest.WithOrigin(origin),
		ingest.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []cache.Option{
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithIngester(a.ingester),
		cache.WithLogger(a.logger),
	}
	if loader := snapshotLoader(cfg.Cache.Snapshot); loader != nil {
		opts = append(opts, cache.WithSnapshot(loader))
	}
	if cfg.Cache.PreserveSnapshotTime {
		opts = append(opts, cache.WithPreserveSnapshotTime())
	}
	if cfg.Cache.Builtin {
		fallback, err := builtin.Templates(ctx)
		if err != nil {
			a.logger.WarnContext(ctx, "builtin templates unavailable", "error", err)
		} else {
			opts = append(opts, cache.WithFallback(fallback))
		}
	}
	a.cache = cache.New(store, opts...)

	popts := []prefs.Option{prefs.WithLogger(a.logger)}
	a.favorites = prefs.NewFavorites(store, popts...)
	a.recents = prefs.NewRecents(store, popts...)
	a.variables = prefs.NewVariables(store, popts...)
	a.profile = prefs.NewProfile(store, popts...)
	return a, nil
}

func (a *app) newSource() (ingest.Source, error) {
	cfg := a.cfg
	switch cfg.Source {
	case config.SourceGitHub:
		return githubsource.NewClient(cfg.GitHub.Repo,
			githubsource.WithBranch(cfg.GitHub.Branch),
			githubsource.WithAuthToken(cfg.GitHub.Token),
			githubsource.WithAPIBase(cfg.GitHub.APIBase),
			githubsource.WithRawBase(cfg.GitHub.RawBase),
			githubsource.WithTimeout(cfg.GitHub.Timeout),
			githubsource.WithLogger(a.logger),
		)
	case config.SourceGit:
		s, err := gitsource.New(cfg.Git.URL,
			gitsource.WithBranch(cfg.GitHub.Branch),
			gitsource.WithDepth(cfg.Git.Depth),
			gitsource.WithDir(cfg.Git.Dir),
			gitsource.WithWebURL(cfg.Git.WebURL),
			gitsource.WithAuth(cfg.GitHub.Token),
			gitsource.WithLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	case config.SourceDir:
		return fssource.Dir(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// snapshotLoader picks the loader for a snapshot location: an http(s) URL or a file path.
func snapshotLoader(location string) snapshot.Loader {
	switch {
	case location == "":
		return nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return &snapshot.HTTPLoader{URL: location}
	default:
		return snapshot.FileLoader(location)
	}
}

// Close releases the store and the source.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close", "error", err)
		}
	}
}

// templates returns the catalog with favorites merged in, reporting degraded
// tiers on stderr.
func (a *app) templates(ctx context.Context) promptstash.Collection {
	res := a.cache.GetTemplates(ctx)
	warnDegraded(os.Stderr, res)
	return catalog.MarkFavorites(res.Templates, a.favorites.Set(ctx))
}

// lookup resolves a template by id or by permalink path.
func (a *app) lookup(ctx context.Context, ref string) (*promptstash.Template, error) {
	col := a.templates(ctx)
	if t, ok := catalog.FindByID(col, ref); ok {
		return t, nil
	}
	if t, ok := catalog.FindByPath(col, ref); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", promptstash.ErrTemplateNotFound, ref)
}

func warnDegraded(w io.Writer, res cache.Result) {
	switch {
	case res.RateLimited():
		fmt.Fprintln(w, "warning: GitHub rate limit exceeded; showing saved templates")
	case res.Tier == cache.TierEmpty:
		fmt.Fprintln(w, "warning: no templates available")
	case res.Err != nil && !errors.Is(res.Err, context.Canceled):
		fmt.Fprintf(w, "warning: template source unavailable (%v); showing %s templates\n", res.Err, res.Tier)
	}
}
