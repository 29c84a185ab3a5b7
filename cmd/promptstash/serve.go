package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skosovsky/promptstash/dispatch"
	"github.com/skosovsky/promptstash/internal/api"
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			router := api.NewRouter(api.Deps{
				Catalog:   a.cache,
				Favorites: a.favorites,
				Recents:   a.recents,
				Variables: a.variables,
				Profile:   a.profile,
				// The browser owns the clipboard; the server only prepares text and URLs.
				Dispatcher: dispatch.New(
					dispatch.WithProfile(a.profile),
					dispatch.WithTracker(a.tracker),
					dispatch.WithLogger(a.logger),
				),
				Tracker: a.tracker,
				Logger:  a.logger,
			})

			srv := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			// Warm the catalog so the first request does not wait on ingestion.
			go a.cache.GetTemplates(ctx)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
}
