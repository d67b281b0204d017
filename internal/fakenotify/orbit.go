package fakenotify

import (
	"math"
	"time"

	"github.com/okian/isstrack/internal/domain/model"
)

const (
	siderealDay = 86164 * time.Second
	deg         = math.Pi / 180
)

// GroundTrack returns the sub-satellite point of a circular orbit at t.
func (c Config) GroundTrack(t time.Time) model.Position {
	dt := t.Sub(c.Epoch).Seconds()
	u := 2 * math.Pi * dt / c.Period.Seconds() // argument of latitude
	inc := c.Inclination * deg

	lat := math.Asin(math.Sin(inc) * math.Sin(u))
	lon := math.Atan2(math.Cos(inc)*math.Sin(u), math.Cos(u))
	lon -= 2 * math.Pi * dt / siderealDay.Seconds()

	return model.Position{
		Latitude:  round4(lat / deg),
		Longitude: round4(normalizeLongitude(c.Longitude0 + lon/deg)),
		Timestamp: t.Truncate(time.Second),
	}
}

// NextPasses returns the start of each interval after from during which the
// ground track stays within visibilityRadius of o, with its duration.
func (c Config) NextPasses(o model.Observer, from time.Time, n int) []Pass {
	var (
		passes []Pass
		inPass bool
		start  time.Time
	)
	for t := from; t.Before(from.Add(passSearchWindow)) && len(passes) < n; t = t.Add(passSearchStep) {
		visible := arc(c.GroundTrack(t), o) <= visibilityRadius
		switch {
		case visible && !inPass:
			inPass, start = true, t
		case !visible && inPass:
			inPass = false
			passes = append(passes, Pass{RiseTime: start, Duration: t.Sub(start)})
		}
	}
	return passes
}

// Pass is one predicted overhead window.
type Pass struct {
	RiseTime time.Time
	Duration time.Duration
}

// arc is the great-circle distance in degrees between p and o.
func arc(p model.Position, o model.Observer) float64 {
	lat1, lat2 := p.Latitude*deg, o.Latitude*deg
	dlon := (p.Longitude - o.Longitude) * deg
	cos := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return math.Acos(math.Max(-1, math.Min(1, cos))) / deg
}

func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
