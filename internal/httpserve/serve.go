// Package httpserve runs an HTTP server for the lifetime of a context.
package httpserve

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Serve listens on address until ctx is done, then shuts down gracefully.
// Requests inherit ctx, and with it the logger and settings it carries.
func Serve(ctx context.Context, address string, handler http.Handler) error {
	lgr := logger.FromContext(ctx)
	srv := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		lgr.Info("listening", "address", address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "failed to listen on %s", address)
	case <-ctx.Done():
		lgr.Info("shutting down", "address", address)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-errCh
		return err
	}
}
