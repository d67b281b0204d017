package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/isstrack/internal/adapters/opennotify"
	"github.com/okian/isstrack/internal/adapters/render"
	service "github.com/okian/isstrack/internal/app"
	"github.com/okian/isstrack/internal/domain/model"
	"github.com/okian/isstrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

var errExhausted = errors.New("no more positions")

// stubClient replays canned responses.
type stubClient struct {
	mu          sync.Mutex
	crew        []model.Astronaut
	crewErr     error
	positions   []model.Position
	posErr      error
	overhead    model.OverheadPrediction
	overheadErr error
	posCalls    int
	onPosition  func(call int)
}

func (c *stubClient) FetchCrew(context.Context) ([]model.Astronaut, error) {
	return c.crew, c.crewErr
}

func (c *stubClient) FetchPosition(ctx context.Context) (model.Position, error) {
	c.mu.Lock()
	call := c.posCalls
	c.posCalls++
	c.mu.Unlock()

	if c.onPosition != nil {
		c.onPosition(call)
	}
	if c.posErr != nil {
		return model.Position{}, c.posErr
	}
	if call >= len(c.positions) {
		if ctx.Err() != nil {
			return model.Position{}, ctx.Err()
		}
		return model.Position{}, errExhausted
	}
	return c.positions[call], nil
}

func (c *stubClient) FetchOverhead(context.Context, float64, float64) (model.OverheadPrediction, error) {
	return c.overhead, c.overheadErr
}

func (c *stubClient) positionCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posCalls
}

// mapAssets writes a small map and icon and returns a render config for them.
func mapAssets(t *testing.T) render.Config {
	t.Helper()
	dir := t.TempDir()

	write := func(name string, img image.Image) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create %s: %v", path, err)
		}
		defer func() { _ = f.Close() }()
		if err := gif.Encode(f, img, nil); err != nil {
			t.Fatalf("encode %s: %v", path, err)
		}
		return path
	}

	cfg := render.DefaultConfig()
	cfg.MapPath = write("map.gif", image.NewPaletted(image.Rect(0, 0, 72, 36), color.Palette{color.RGBA{B: 0xff, A: 0xff}}))
	cfg.IconPath = write("iss.gif", image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.White}))
	return cfg
}

// simSurfaces returns a factory opening simulation-backed surfaces and a
// getter for the last one opened.
func simSurfaces(cfg render.Config) (service.SurfaceFactory, func() *render.Surface) {
	var (
		mu   sync.Mutex
		last *render.Surface
	)
	factory := func() (*render.Surface, error) {
		s, err := render.Initialize(cfg, render.NewSimulationCanvas(72, 36))
		if err != nil {
			return nil, err
		}
		mu.Lock()
		last = s
		mu.Unlock()
		return s, nil
	}
	get := func() *render.Surface {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
	return factory, get
}

func TestRunContinuous(t *testing.T) {
	Convey("Given three mocked positions and a map surface", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		positions := []model.Position{
			{Latitude: 10, Longitude: 20, Timestamp: time.Unix(1_700_000_000, 0)},
			{Latitude: 11, Longitude: 25, Timestamp: time.Unix(1_700_000_007, 0)},
			{Latitude: 12, Longitude: 30, Timestamp: time.Unix(1_700_000_014, 0)},
		}
		factory, surface := simSurfaces(mapAssets(t))

		var seen []render.Point
		client := &stubClient{
			crew:      []model.Astronaut{{Name: "A. One", Craft: "ISS"}},
			positions: positions,
			overhead:  model.OverheadPrediction{RiseTime: time.Unix(1_700_003_600, 0)},
		}
		client.onPosition = func(call int) {
			if call > 0 {
				p, _ := surface().Icon()
				seen = append(seen, p)
			}
			if call == len(positions) {
				cancel()
			}
		}

		var out bytes.Buffer
		tracker := service.New(client,
			service.WithOutput(&out),
			service.WithSurfaceFactory(factory),
			service.WithPollInterval(time.Millisecond),
		)

		err := tracker.RunContinuous(ctx)

		Convey("Then cancellation ends the loop without error", func() {
			So(err, ShouldBeNil)
			So(tracker.State(), ShouldEqual, service.StateStopped)
		})

		Convey("Then the icon visits each position in order", func() {
			So(seen, ShouldResemble, []render.Point{
				{X: 20, Y: 10},
				{X: 25, Y: 11},
				{X: 30, Y: 12},
			})
		})

		Convey("Then no trail is drawn", func() {
			So(surface().Trail(), ShouldBeEmpty)
			So(surface().PenDown(), ShouldBeFalse)
		})

		Convey("Then the observer marker carries the rise time", func() {
			markers := surface().Markers()
			So(markers, ShouldHaveLength, 1)
			So(markers[0].At, ShouldResemble, render.Point{X: model.DefaultObserverLongitude, Y: model.DefaultObserverLatitude})
			So(markers[0].Label, ShouldStartWith, model.FormatInstant(time.Unix(1_700_003_600, 0)))
		})

		Convey("Then every position is printed with its timestamp", func() {
			for _, p := range positions {
				So(out.String(), ShouldContainSubstring,
					"Current ISS coordinates: "+p.String()+" at "+model.FormatInstant(p.Timestamp)+"\n")
			}
			So(strings.Count(out.String(), "Current ISS coordinates:"), ShouldEqual, 3)
		})

		Convey("Then the map's status row mirrors the last report", func() {
			last := positions[len(positions)-1]
			So(surface().Status(), ShouldEqual,
				"Current ISS coordinates: "+last.String()+" at "+model.FormatInstant(last.Timestamp))
		})

		Convey("Then the stats reflect the last position", func() {
			stats := tracker.GetStats()
			So(stats["ticks"], ShouldEqual, int64(3))
			So(stats["latitude"], ShouldEqual, 12.0)
			So(stats["longitude"], ShouldEqual, 30.0)
			So(stats["crew"], ShouldEqual, 1)
			So(stats["session"], ShouldNotBeEmpty)
		})
	})

	Convey("Given a position fetch that fails mid-run", t, func() {
		client := &stubClient{
			positions: []model.Position{{Latitude: 1, Longitude: 2}},
		}
		var out bytes.Buffer
		tracker := service.New(client,
			service.WithOutput(&out),
			service.WithPollInterval(time.Millisecond),
		)

		err := tracker.RunContinuous(context.Background())

		Convey("Then the error is returned", func() {
			So(errors.Is(err, errExhausted), ShouldBeTrue)
			So(client.positionCalls(), ShouldEqual, 2)
		})

		Convey("Then positions without a timestamp print bare coordinates", func() {
			So(out.String(), ShouldContainSubstring, "Current ISS coordinates: lat=1 lon=2\n")
		})
	})

	Convey("Given a context cancelled during the sleep", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		client := &stubClient{positions: []model.Position{{Latitude: 1, Longitude: 2}}}
		tracker := service.New(client,
			service.WithOutput(io.Discard),
			service.WithPollInterval(time.Hour),
		)

		start := time.Now()
		err := tracker.RunContinuous(ctx)

		Convey("Then the sleep is interrupted", func() {
			So(err, ShouldBeNil)
			So(time.Since(start), ShouldBeLessThan, 5*time.Second)
			So(client.positionCalls(), ShouldEqual, 1)
		})
	})

	Convey("Given a graphics failure", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		client := &stubClient{
			positions: []model.Position{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}},
		}
		client.onPosition = func(call int) {
			if call == 2 {
				cancel()
			}
		}
		var out bytes.Buffer
		tracker := service.New(client,
			service.WithOutput(&out),
			service.WithPollInterval(time.Millisecond),
			service.WithSurfaceFactory(func() (*render.Surface, error) {
				cfg := render.DefaultConfig()
				cfg.MapPath = filepath.Join(t.TempDir(), "missing.gif")
				cfg.IconPath = cfg.MapPath
				return render.Initialize(cfg, render.NewSimulationCanvas(72, 36))
			}),
		)

		err := tracker.RunContinuous(ctx)

		Convey("Then polling continues on the console", func() {
			So(err, ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "ERROR: problem loading graphics: ")
			So(out.String(), ShouldContainSubstring, "Current ISS coordinates: lat=3 lon=4\n")
			So(tracker.GetStats()["graphics"], ShouldBeFalse)
		})
	})
}

func TestRunOnce(t *testing.T) {
	Convey("Given a crew of one behind a live HTTP server", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/astros.json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"people":[{"name":"A. One","craft":"ISS"}]}`)
		})
		mux.HandleFunc("/iss-now.json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"iss_position":{"latitude":"12.34","longitude":"-56.78"},"timestamp":1700000000}`)
		})
		mux.HandleFunc("/iss-pass.json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"response":[{"risetime":1},{"risetime":1700003600,"duration":600}]}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := opennotify.NewClient(opennotify.WithBaseURL(srv.URL))

		Convey("When running console-only", func() {
			var out bytes.Buffer
			tracker := service.New(client, service.WithOutput(&out))
			err := tracker.RunOnce(context.Background())

			Convey("Then the crew and the position are printed", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldStartWith, "Current astronauts in space: 1\n\n")
				So(out.String(), ShouldContainSubstring, "Astronaut: A. One\nSpacecraft: ISS\n")
				So(out.String(), ShouldContainSubstring, "Current ISS coordinates: lat=12.34 lon=-56.78\n")
				So(out.String(), ShouldNotContainSubstring, "Click world map to exit")
			})
		})

		Convey("When running with a map until the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			factory, surface := simSurfaces(mapAssets(t))
			now := time.Unix(1_700_000_000, 0)
			var out bytes.Buffer
			tracker := service.New(client,
				service.WithOutput(&out),
				service.WithSurfaceFactory(factory),
				service.WithClock(func() time.Time { return now }),
			)
			err := tracker.RunOnce(ctx)

			Convey("Then the icon sits at the fetched position", func() {
				So(err, ShouldBeNil)
				p, placed := surface().Icon()
				So(placed, ShouldBeTrue)
				So(p, ShouldResemble, render.Point{X: -56.78, Y: 12.34})
			})

			Convey("Then the observer label shows the rise time from index 1", func() {
				markers := surface().Markers()
				So(markers, ShouldHaveLength, 1)
				So(markers[0].Color, ShouldResemble, render.ColorYellow)
				So(markers[0].Label, ShouldEqual, model.FormatInstant(time.Unix(1_700_003_600, 0))+" (1 hour from now)")
			})

			Convey("Then the exit prompt is printed and shown on the map", func() {
				So(out.String(), ShouldEndWith, "Click world map to exit\n")
				So(surface().Status(), ShouldEqual, "Click world map to exit")
			})
		})
	})

	Convey("Given a position endpoint answering 500", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/astros.json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"people":[]}`)
		})
		mux.HandleFunc("/iss-now.json", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		opened := 0
		tracker := service.New(opennotify.NewClient(opennotify.WithBaseURL(srv.URL)),
			service.WithOutput(io.Discard),
			service.WithSurfaceFactory(func() (*render.Surface, error) {
				opened++
				return nil, errors.New("unexpected")
			}),
		)

		err := tracker.RunOnce(context.Background())

		Convey("Then the run fails with a network error before any rendering", func() {
			So(errors.Is(err, opennotify.ErrNetwork), ShouldBeTrue)
			var netErr *opennotify.NetworkError
			So(errors.As(err, &netErr), ShouldBeTrue)
			So(netErr.StatusCode, ShouldEqual, http.StatusInternalServerError)
			So(opened, ShouldEqual, 0)
			So(tracker.GetStats()["ticks"], ShouldEqual, int64(0))
		})
	})

	Convey("Given a failing overhead prediction", t, func() {
		client := &stubClient{
			positions:   []model.Position{{Latitude: 1, Longitude: 2}},
			overheadErr: opennotify.ErrOutOfRange,
		}
		factory, surface := simSurfaces(mapAssets(t))
		tracker := service.New(client,
			service.WithOutput(io.Discard),
			service.WithSurfaceFactory(factory),
		)

		err := tracker.RunOnce(context.Background())

		Convey("Then the run fails and the icon is never placed", func() {
			So(errors.Is(err, opennotify.ErrOutOfRange), ShouldBeTrue)
			_, placed := surface().Icon()
			So(placed, ShouldBeFalse)
		})
	})

	Convey("Given a crew fetch that fails", t, func() {
		client := &stubClient{crewErr: opennotify.ErrDecode}
		var out bytes.Buffer
		tracker := service.New(client, service.WithOutput(&out))

		err := tracker.RunOnce(context.Background())

		Convey("Then nothing is printed and the position is never fetched", func() {
			So(errors.Is(err, opennotify.ErrDecode), ShouldBeTrue)
			So(out.Len(), ShouldEqual, 0)
			So(client.positionCalls(), ShouldEqual, 0)
		})
	})
}
