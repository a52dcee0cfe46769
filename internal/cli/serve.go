package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/debrief/pkg/adapters/http"
)

// ShutdownTimeout bounds how long in-flight requests may take once shutdown begins.
const ShutdownTimeout = 5 * time.Second

// NewHTTPHandler exposes the app's coach and metrics over HTTP.
func NewHTTPHandler(app *App) http.Handler {
	return httpadapter.NewHandler(app.Coach,
		httpadapter.WithMetrics(app.Metrics.Handler()),
		httpadapter.WithLogger(app.Logger),
	)
}

// Serve runs the HTTP API on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *App, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("http server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		app.Logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}
