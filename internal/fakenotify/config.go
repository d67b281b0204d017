package fakenotify

import (
	"time"

	"github.com/okian/isstrack/internal/domain/model"
)

// Orbit defaults, roughly the ISS.
const (
	DefaultPeriod      = 92*time.Minute + 41*time.Second
	DefaultInclination = 51.64
	defaultPassCount   = 5
	passSearchWindow   = 48 * time.Hour
	passSearchStep     = 30 * time.Second
	visibilityRadius   = 20.0 // degrees of arc from the observer
)

// Config holds the stand-in's orbit and crew.
type Config struct {
	Crew        []model.Astronaut
	Epoch       time.Time     // ascending node crossing at Longitude0
	Longitude0  float64       // longitude of the node at Epoch
	Period      time.Duration // orbital period
	Inclination float64       // degrees
	Passes      int           // predictions returned after the metadata entry
	Now         func() time.Time
}

// DefaultConfig returns a six-person crew on an ISS-like orbit.
func DefaultConfig() Config {
	return Config{
		Crew: []model.Astronaut{
			{Name: "Oleg Kononenko", Craft: "ISS"},
			{Name: "Nikolai Chub", Craft: "ISS"},
			{Name: "Tracy Caldwell Dyson", Craft: "ISS"},
			{Name: "Matthew Dominick", Craft: "ISS"},
			{Name: "Li Guangsu", Craft: "Tiangong"},
			{Name: "Li Cong", Craft: "Tiangong"},
		},
		Epoch:       time.Unix(1_700_000_000, 0),
		Period:      DefaultPeriod,
		Inclination: DefaultInclination,
		Passes:      defaultPassCount,
		Now:         time.Now,
	}
}
