// Package service drives the ISS tracker: it polls the Open Notify client,
// reports on the console and moves the icon on the map surface.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/okian/isstrack/internal/adapters/render"
	"github.com/okian/isstrack/internal/domain/model"
	"github.com/okian/isstrack/pkg/logger"
	"github.com/okian/isstrack/pkg/metrics"
)

// DefaultPollInterval is the pause between position fetches in continuous mode.
const DefaultPollInterval = 7 * time.Second

const exitHint = "Click world map to exit"

// State is the phase of the poll loop.
type State string

const (
	StateStarting  State = "starting"
	StatePolling   State = "polling"
	StateRendering State = "rendering"
	StateSleeping  State = "sleeping"
	StateStopped   State = "stopped"
)

// Client is the subset of the Open Notify client the tracker depends on.
type Client interface {
	FetchCrew(ctx context.Context) ([]model.Astronaut, error)
	FetchPosition(ctx context.Context) (model.Position, error)
	FetchOverhead(ctx context.Context, lat, lon float64) (model.OverheadPrediction, error)
}

// SurfaceFactory opens a fresh map surface.
type SurfaceFactory func() (*render.Surface, error)

// Tracker orchestrates the client and the map surface.
type Tracker struct {
	mu sync.RWMutex

	client       Client
	newSurface   SurfaceFactory
	observer     model.Observer
	pollInterval time.Duration
	out          io.Writer
	now          func() time.Time
	logger       logger.Logger

	// State
	session  string
	state    State
	ticks    int64
	crew     int
	last     model.Position
	overhead model.OverheadPrediction
	graphics bool
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger for the tracker.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithSurfaceFactory sets how the map surface is opened. Without one the
// tracker runs console-only.
func WithSurfaceFactory(f SurfaceFactory) Option {
	return func(t *Tracker) {
		t.newSurface = f
	}
}

// WithObserver sets the ground location used for the overhead prediction.
func WithObserver(o model.Observer) Option {
	return func(t *Tracker) {
		t.observer = o
	}
}

// WithPollInterval sets the pause between fetches in continuous mode.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithOutput sets where console reports are written.
func WithOutput(w io.Writer) Option {
	return func(t *Tracker) {
		if w != nil {
			t.out = w
		}
	}
}

// WithClock overrides the wall clock used for relative times.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New constructs a Tracker around client.
func New(client Client, opts ...Option) *Tracker {
	t := &Tracker{
		client:       client,
		observer:     model.DefaultObserver(),
		pollInterval: DefaultPollInterval,
		out:          os.Stdout,
		now:          time.Now,
		logger:       logger.Get(),
		state:        StateStarting,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RunOnce fetches the crew and the position once, shows the icon and the
// observer marker, then blocks until the map is closed or ctx is cancelled.
func (t *Tracker) RunOnce(ctx context.Context) error {
	log := t.begin(ctx, "oneshot")
	defer t.setState(StateStopped)

	if err := t.reportCrew(ctx); err != nil {
		return err
	}

	t.setState(StatePolling)
	pos, err := t.client.FetchPosition(ctx)
	if err != nil {
		return fmt.Errorf("fetch position: %w", err)
	}
	t.recordPosition(pos)
	t.printf("Current ISS coordinates: %s\n", pos)

	surface, err := t.openSurface(ctx)
	if err != nil {
		return err
	}
	if surface == nil {
		return nil
	}

	t.setState(StateRendering)
	if err := t.show(surface, pos, exitHint); err != nil {
		surface.Close()
		t.graphicsFailed(ctx, err)
		return nil
	}

	t.printf("%s\n", exitHint)
	log.Info(ctx, "waiting for the map to be closed")
	if err := surface.RunEventLoop(ctx); err != nil {
		t.graphicsFailed(ctx, err)
	}
	return nil
}

// RunContinuous reports the crew once, then fetches and shows the position
// every poll interval. It returns nil when ctx is cancelled or the map is
// closed, and the error of the first failed fetch otherwise.
func (t *Tracker) RunContinuous(ctx context.Context) error {
	log := t.begin(ctx, "continuous")
	defer t.setState(StateStopped)

	if err := t.reportCrew(ctx); err != nil {
		return err
	}

	surface, err := t.openSurface(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if surface != nil {
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer cancel()
			if err := surface.RunEventLoop(ctx); err != nil {
				log.Warn(ctx, "map event loop failed", logger.Error(err))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	timer := time.NewTimer(t.pollInterval)
	defer timer.Stop()

	for {
		t.setState(StatePolling)
		start := time.Now()

		pos, err := t.client.FetchPosition(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch position: %w", err)
		}
		t.recordPosition(pos)
		line := "Current ISS coordinates: " + pos.String()
		if pos.HasTimestamp() {
			line += " at " + model.FormatInstant(pos.Timestamp)
		}
		t.printf("%s\n", line)

		if surface != nil {
			t.setState(StateRendering)
			if err := t.show(surface, pos, line); err != nil {
				if errors.Is(err, render.ErrSurfaceClosed) {
					log.Info(ctx, "map closed, stopping")
					return nil
				}
				surface.Close()
				surface = nil
				t.graphicsFailed(ctx, err)
			}
		}

		metrics.RecordPollTick(float64(time.Since(start).Milliseconds()))

		t.setState(StateSleeping)
		timer.Reset(t.pollInterval)
		select {
		case <-ctx.Done():
			log.Info(ctx, "polling stopped")
			return nil
		case <-timer.C:
		}
	}
}

// show moves the icon to pos and mirrors status on the map's bottom row.
func (t *Tracker) show(surface *render.Surface, pos model.Position, status string) error {
	if err := surface.MoveIcon(pos.Latitude, pos.Longitude); err != nil {
		return err
	}
	return surface.SetStatus(status)
}

// begin starts a new session and returns its logger.
func (t *Tracker) begin(ctx context.Context, mode string) logger.Logger {
	session := uuid.NewString()

	t.mu.Lock()
	t.session = session
	t.state = StateStarting
	t.ticks = 0
	t.mu.Unlock()

	log := t.logger.With(logger.String("session", session))
	log.Info(ctx, "tracker starting",
		logger.String("mode", mode),
		logger.Duration("pollInterval", t.pollInterval),
		logger.Float64("observerLat", t.observer.Latitude),
		logger.Float64("observerLon", t.observer.Longitude),
	)
	return log
}

func (t *Tracker) reportCrew(ctx context.Context) error {
	crew, err := t.client.FetchCrew(ctx)
	if err != nil {
		return fmt.Errorf("fetch crew: %w", err)
	}

	t.mu.Lock()
	t.crew = len(crew)
	t.mu.Unlock()
	metrics.UpdateCrewSize(len(crew))

	t.printf("Current astronauts in space: %d\n\n", len(crew))
	for _, a := range crew {
		t.printf("Astronaut: %s\nSpacecraft: %s\n\n", a.Name, a.Craft)
	}
	return nil
}

// openSurface opens the map and places the observer marker. A graphics
// failure is reported and yields a nil surface; a failed overhead fetch is
// returned.
func (t *Tracker) openSurface(ctx context.Context) (*render.Surface, error) {
	if t.newSurface == nil {
		return nil, nil
	}

	surface, err := t.newSurface()
	if err != nil {
		t.graphicsFailed(ctx, err)
		return nil, nil
	}

	pred, err := t.client.FetchOverhead(ctx, t.observer.Latitude, t.observer.Longitude)
	if err != nil {
		surface.Close()
		return nil, fmt.Errorf("fetch overhead: %w", err)
	}

	t.mu.Lock()
	t.overhead = pred
	t.mu.Unlock()

	label := pred.String() + " (" + humanize.RelTime(pred.RiseTime, t.now(), "ago", "from now") + ")"
	if err := surface.PlaceMarker(t.observer.Latitude, t.observer.Longitude, render.ColorYellow, label); err != nil {
		surface.Close()
		t.graphicsFailed(ctx, err)
		return nil, nil
	}

	t.mu.Lock()
	t.graphics = true
	t.mu.Unlock()
	return surface, nil
}

func (t *Tracker) graphicsFailed(ctx context.Context, err error) {
	t.mu.Lock()
	t.graphics = false
	t.mu.Unlock()

	t.logger.Warn(ctx, "continuing without map", logger.Error(err))
	t.printf("ERROR: problem loading graphics: %v\n", err)
}

func (t *Tracker) recordPosition(pos model.Position) {
	t.mu.Lock()
	t.last = pos
	t.ticks++
	t.mu.Unlock()
	metrics.UpdatePosition(pos.Latitude, pos.Longitude)
}

func (t *Tracker) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Tracker) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}

// State returns the current phase of the poll loop.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// GetStats returns tracker statistics for monitoring.
func (t *Tracker) GetStats() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := map[string]interface{}{
		"session":      t.session,
		"state":        string(t.state),
		"ticks":        t.ticks,
		"crew":         t.crew,
		"graphics":     t.graphics,
		"pollInterval": t.pollInterval.String(),
	}

	if t.ticks > 0 {
		stats["latitude"] = t.last.Latitude
		stats["longitude"] = t.last.Longitude
		if t.last.HasTimestamp() {
			stats["timestamp"] = t.last.Timestamp.UTC().Format(time.RFC3339)
		}
	}
	if !t.overhead.RiseTime.IsZero() {
		stats["nextRiseTime"] = t.overhead.RiseTime.UTC().Format(time.RFC3339)
	}

	return stats
}
