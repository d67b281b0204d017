// Package config defines tracker configuration structures and loading hooks.
//
// Conventions:
// - Defaults reproduce the stock tracker: public API, 7s polling, Indianapolis observer.
// - All functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"

	"github.com/okian/isstrack/internal/adapters/opennotify"
	"github.com/okian/isstrack/internal/adapters/render"
	"github.com/okian/isstrack/internal/domain/model"
)

// Run modes.
const (
	ModeOneShot    = "oneshot"
	ModeContinuous = "continuous"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Mode selects fetch-once-and-idle (oneshot) or live polling (continuous).
	Mode string `koanf:"mode" validate:"oneof=oneshot continuous"`

	// APIBaseURL is the Open Notify root.
	APIBaseURL string `koanf:"api_base_url" validate:"required,url"`

	// HTTPTimeoutMS bounds each API round-trip.
	HTTPTimeoutMS int `koanf:"http_timeout_ms" validate:"gt=0"`

	// PollIntervalMS is the pause between position polls in continuous mode.
	PollIntervalMS int `koanf:"poll_interval_ms" validate:"gt=0"`

	// ObserverLat and ObserverLon locate the overhead-pass observer.
	ObserverLat float64 `koanf:"observer_lat" validate:"gte=-90,lte=90"`
	ObserverLon float64 `koanf:"observer_lon" validate:"gte=-180,lte=180"`

	// IconPath and MapPath name the image assets.
	IconPath string `koanf:"icon_path" validate:"required"`
	MapPath  string `koanf:"map_path" validate:"required"`

	// CanvasWidth and CanvasHeight are the logical map size.
	CanvasWidth  int `koanf:"canvas_width" validate:"gt=0"`
	CanvasHeight int `koanf:"canvas_height" validate:"gt=0"`

	// StatusAddr enables the metrics/stats HTTP server when set, e.g. ":9464".
	StatusAddr string `koanf:"status_addr" validate:"omitempty,hostname_port"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		Mode:           ModeContinuous,
		APIBaseURL:     opennotify.DefaultBaseURL,
		HTTPTimeoutMS:  10_000,
		PollIntervalMS: 7_000,
		ObserverLat:    model.DefaultObserverLatitude,
		ObserverLon:    model.DefaultObserverLongitude,
		IconPath:       render.DefaultIconPath,
		MapPath:        render.DefaultMapPath,
		CanvasWidth:    render.DefaultWidth,
		CanvasHeight:   render.DefaultHeight,
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Observer returns the configured observer location.
func (c *Config) Observer() model.Observer {
	return model.Observer{Latitude: c.ObserverLat, Longitude: c.ObserverLon}
}

// Render returns the surface configuration.
func (c *Config) Render() render.Config {
	rc := render.DefaultConfig()
	rc.IconPath = c.IconPath
	rc.MapPath = c.MapPath
	rc.Width = c.CanvasWidth
	rc.Height = c.CanvasHeight
	return rc
}
