// Package api serves the template catalog, rendering, dispatch and per-user
// preferences as a JSON HTTP API for the browser front end.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/cache"
	"github.com/skosovsky/promptstash/dispatch"
	"github.com/skosovsky/promptstash/prefs"
)

// Catalog serves the current template collection; *cache.Manager implements it.
type Catalog interface {
	GetTemplates(ctx context.Context) cache.Result
	Refresh(ctx context.Context) cache.Result
}

var _ Catalog = (*cache.Manager)(nil)

// Deps holds all dependencies required to build the router.
// Tracker, Meta and Logger are optional.
type Deps struct {
	Catalog    Catalog
	Favorites  *prefs.Favorites
	Recents    *prefs.Recents
	Variables  *prefs.Variables
	Profile    *prefs.Profile
	Dispatcher *dispatch.Dispatcher
	Tracker    promptstash.Tracker
	Meta       promptstash.MetaTagSink
	Logger     *slog.Logger
}

// NewRouter creates the HTTP handler with all routes mounted under /api.
func NewRouter(deps Deps) chi.Router {
	if deps.Tracker == nil {
		deps.Tracker = promptstash.NopTracker{}
	}
	if deps.Meta == nil {
		deps.Meta = promptstash.NopMetaTagSink{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Dispatcher == nil {
		opts := []dispatch.Option{dispatch.WithTracker(deps.Tracker), dispatch.WithLogger(deps.Logger)}
		if deps.Profile != nil {
			opts = append(opts, dispatch.WithProfile(deps.Profile))
		}
		deps.Dispatcher = dispatch.New(opts...)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)
		h := &handler{Deps: deps}
		r.Get("/templates", h.ListTemplates)
		r.Get("/templates/{id}", h.GetTemplate)
		r.Get("/permalink/*", h.GetPermalink)
		r.Post("/templates/{id}/render", h.Render)
		r.Post("/templates/{id}/send", h.Send)
		r.Post("/refresh", h.Refresh)

		r.Get("/templates/{id}/variables", h.GetVariables)
		r.Put("/templates/{id}/variables", h.SaveVariables)
		r.Patch("/templates/{id}/variables", h.UpdateVariable)
		r.Delete("/templates/{id}/variables", h.ClearVariables)
		r.Delete("/variables", h.ClearAllVariables)

		r.Get("/favorites", h.ListFavorites)
		r.Put("/favorites/{id}", h.AddFavorite)
		r.Delete("/favorites/{id}", h.RemoveFavorite)
		r.Post("/favorites/{id}/toggle", h.ToggleFavorite)
		r.Delete("/favorites", h.ClearFavorites)

		r.Get("/recents", h.ListRecents)
		r.Delete("/recents", h.ClearRecents)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.SaveProfile)
		r.Delete("/profile", h.ClearProfile)
	})
	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.LogAttrs(r.Context(), slog.LevelDebug, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
