package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/isstrack/internal/adapters/http/api"
	"github.com/okian/isstrack/internal/adapters/http/swagger"
	"github.com/okian/isstrack/internal/adapters/opennotify"
	"github.com/okian/isstrack/internal/adapters/render"
	app "github.com/okian/isstrack/internal/app"
	"github.com/okian/isstrack/internal/config"
	"github.com/okian/isstrack/pkg/logger"
	"github.com/okian/isstrack/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		os.Stderr.WriteString("isstrack: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	loggerInstance := logger.Get()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tracker := newTracker(cfg, loggerInstance)

	go startSystemMetricsUpdater(ctx, metrics.RefreshInterval())

	if cfg.StatusAddr != "" {
		srv := newStatusServer(cfg.StatusAddr, tracker)
		go func() {
			loggerInstance.Info(ctx, "starting status server", logger.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				loggerInstance.Error(ctx, "status server failed", logger.Error(fmt.Errorf("%w: %v", api.ErrServe, err)))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				loggerInstance.Error(ctx, "status server shutdown failed", logger.Error(err))
			}
		}()
	}

	return runMode(ctx, cfg.Mode, tracker)
}

// newTracker wires the Open Notify client and the terminal map into a tracker.
func newTracker(cfg *config.Config, log logger.Logger) *app.Tracker {
	client := opennotify.NewClient(
		opennotify.WithBaseURL(cfg.APIBaseURL),
		opennotify.WithTimeout(cfg.HTTPTimeout()),
		opennotify.WithLogger(log.Named("opennotify")),
	)

	renderCfg := cfg.Render()
	surfaces := func() (*render.Surface, error) {
		return render.Initialize(renderCfg, render.NewTerminalCanvas(), render.WithLogger(log.Named("render")))
	}

	return app.New(client,
		app.WithLogger(log.Named("tracker")),
		app.WithSurfaceFactory(surfaces),
		app.WithObserver(cfg.Observer()),
		app.WithPollInterval(cfg.PollInterval()),
	)
}

// runMode dispatches to the configured poll loop.
func runMode(ctx context.Context, mode string, tracker *app.Tracker) error {
	switch mode {
	case config.ModeOneShot:
		return tracker.RunOnce(ctx)
	case config.ModeContinuous:
		return tracker.RunContinuous(ctx)
	default:
		return fmt.Errorf("%w: unknown mode %q", config.ErrInvalidConfig, mode)
	}
}

// newStatusServer builds the HTTP server for /healthz, /stats and the API docs.
func newStatusServer(addr string, stats api.StatsProvider) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(stats).Register(mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater samples the process gauges every interval until ctx ends.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
