package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"
)

// startHTTPServer serves router until a shutdown signal arrives, ctx is
// canceled or the listener fails. Suspend signals flush persisted state
// and keep serving. Cleanup runs on every exit path.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.Server.Port))
	if err != nil {
		app.cleanup(ctx)
		return fmt.Errorf("failed to listen: %w", err)
	}
	return app.serve(ctx, listener, router)
}

func (app *application) serve(ctx context.Context, listener net.Listener, router http.Handler) error {
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, shutdownSignals...)
	defer signal.Stop(shutdownCh)

	suspendCh := make(chan os.Signal, 1)
	if len(suspendSignals) > 0 {
		signal.Notify(suspendCh, suspendSignals...)
		defer signal.Stop(suspendCh)
	}

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", "error", err)
			serveErr <- err
			cancelServer()
		}
	}()

	for waiting := true; waiting; {
		select {
		case sig := <-suspendCh:
			app.logger.Info("flushing state", "signal", sig.String())
			if err := app.flush(ctx); err != nil {
				app.logger.Error("failed to flush state", "error", err)
			}
		case sig := <-shutdownCh:
			app.logger.Info("shutting down server", "signal", sig.String())
			waiting = false
		case <-serverCtx.Done():
			app.logger.Info("server context canceled, shutting down")
			waiting = false
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer shutdownCancel()

	var result error
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		result = fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup(shutdownCtx)

	select {
	case err := <-serveErr:
		result = errors.Join(result, err)
	default:
	}

	app.logger.Info("server shutdown completed")
	return result
}
