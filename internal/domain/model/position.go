// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPosition is returned when coordinates fall outside the geographic range.
var ErrInvalidPosition = errors.New("invalid position")

var validate = validator.New() //nolint:gochecknoglobals // validator caches struct metadata

// Astronaut is one entry of the crew manifest. It is a snapshot of a single
// response and carries no identity across polls.
type Astronaut struct {
	Name  string `json:"name"`
	Craft string `json:"craft"`
}

// Position is the ISS sub-satellite point reported by one poll.
type Position struct {
	Latitude  float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Timestamp time.Time `json:"timestamp"` // zero when the response had none
}

// Validate checks the coordinates against the geographic range.
func (p Position) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return nil
}

// HasTimestamp reports whether the upstream response carried a timestamp.
func (p Position) HasTimestamp() bool {
	return !p.Timestamp.IsZero()
}

// String renders the coordinates the way the console reports them.
func (p Position) String() string {
	return "lat=" + FormatCoordinate(p.Latitude) + " lon=" + FormatCoordinate(p.Longitude)
}

// OverheadPrediction is the next time the ISS rises above an observer.
type OverheadPrediction struct {
	RiseTime time.Time `json:"rise_time"`
}

// String returns the rise time in ctime form.
func (o OverheadPrediction) String() string {
	return FormatInstant(o.RiseTime)
}

// Observer is the fixed ground location the overhead prediction is computed for.
type Observer struct {
	Latitude  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Indianapolis, IN.
const (
	DefaultObserverLatitude  = 39.768403
	DefaultObserverLongitude = -86.158068
)

// DefaultObserver returns the observer used when none is configured.
func DefaultObserver() Observer {
	return Observer{Latitude: DefaultObserverLatitude, Longitude: DefaultObserverLongitude}
}

// Validate checks the observer coordinates against the geographic range.
func (o Observer) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return nil
}

// FromEpoch converts epoch seconds into an instant.
func FromEpoch(seconds int64) time.Time {
	return time.Unix(seconds, 0)
}

// FormatInstant renders t in local time using the ctime layout.
func FormatInstant(t time.Time) string {
	return t.Local().Format(time.ANSIC)
}

// FormatCoordinate prints a coordinate with the shortest exact representation.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
