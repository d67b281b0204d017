package fakenotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/okian/isstrack/pkg/logger"
)

// Server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Serve runs the stand-in on ln until ctx is cancelled.
func Serve(ctx context.Context, ln net.Listener, cfg Config) error {
	log := logger.Get().Named("fakenotify")

	srv := &http.Server{
		Handler:           NewServer(cfg).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info(ctx, "fake open notify listening",
		logger.String("addr", ln.Addr().String()),
		logger.Duration("period", cfg.Period),
		logger.Float64("inclination", cfg.Inclination),
		logger.Int("crew", len(cfg.Crew)),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(ctx, "fake open notify stopped")
	return nil
}

// ShowHelp prints usage information for the fake-notify tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Fake Open Notify
================

Serves /astros.json, /iss-now.json and /iss-pass.json from a synthetic orbit
so the tracker can run without network access.

Usage:
  go run ./cmd/fake-notify [options]

Options:
  -addr string
        Listen address (default ":8089")
  -period duration
        Orbital period (default 1h32m41s)
  -inclination float
        Orbit inclination in degrees (default 51.64)
  -node-lon float
        Longitude of the ascending node at the epoch (default 0)
  -passes int
        Pass predictions returned after the metadata entry (default 5)
  -help
        Show this help message

Examples:
  # Serve the default orbit and point the tracker at it
  go run ./cmd/fake-notify -addr :8089
  ISSTRACK_API_BASE_URL=http://localhost:8089 go run ./cmd

  # A fast orbit for watching the icon move
  go run ./cmd/fake-notify -period 10m
`)
}
