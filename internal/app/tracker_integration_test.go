package service_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/isstrack/internal/adapters/opennotify"
	service "github.com/okian/isstrack/internal/app"
	"github.com/okian/isstrack/internal/fakenotify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTrackerAgainstStandIn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	Convey("Given the tracker polling the local stand-in", t, func() {
		cfg := fakenotify.DefaultConfig()
		srv := httptest.NewServer(fakenotify.NewServer(cfg).Handler())
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		factory, surface := simSurfaces(mapAssets(t))
		var out bytes.Buffer
		tracker := service.New(opennotify.NewClient(opennotify.WithBaseURL(srv.URL)),
			service.WithOutput(&out),
			service.WithSurfaceFactory(factory),
			service.WithPollInterval(20*time.Millisecond),
		)

		err := tracker.RunContinuous(ctx)

		Convey("Then it stops cleanly at the deadline", func() {
			So(err, ShouldBeNil)
			So(tracker.State(), ShouldEqual, service.StateStopped)
		})

		Convey("Then the whole crew is reported once", func() {
			So(strings.Count(out.String(), "Current astronauts in space: 6\n"), ShouldEqual, 1)
			for _, a := range cfg.Crew {
				So(out.String(), ShouldContainSubstring, "Astronaut: "+a.Name+"\nSpacecraft: "+a.Craft+"\n")
			}
		})

		Convey("Then several positions were shown", func() {
			So(strings.Count(out.String(), "Current ISS coordinates: lat="), ShouldBeGreaterThan, 1)
			stats := tracker.GetStats()
			So(stats["graphics"], ShouldBeTrue)
			So(stats["nextRiseTime"], ShouldNotBeEmpty)
			_, placed := surface().Icon()
			So(placed, ShouldBeTrue)
			So(surface().Trail(), ShouldBeEmpty)
		})
	})
}
