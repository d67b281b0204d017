package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with default settings", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When asking the global manager for its refresh interval", func() {
			Convey("Then the default applies", func() {
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("poller"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithRefreshInterval(3*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names carry the namespace and subsystem", func() {
				manager.pollTicks.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_poller_poll_ticks_total")
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording upstream requests", func() {
			before := testutil.ToFloat64(globalManager.apiRequests.WithLabelValues("iss-now", "200"))
			RecordAPIRequest("iss-now", "200", 42)
			RecordAPIError("iss-now", "status")

			Convey("Then the request counter advances", func() {
				So(testutil.ToFloat64(globalManager.apiRequests.WithLabelValues("iss-now", "200")), ShouldEqual, before+1)
			})
		})

		Convey("When publishing a position", func() {
			UpdatePosition(12.34, -56.78)

			Convey("Then both gauges hold the coordinates", func() {
				So(testutil.ToFloat64(globalManager.issLatitude), ShouldEqual, 12.34)
				So(testutil.ToFloat64(globalManager.issLongitude), ShouldEqual, -56.78)
			})
		})

		Convey("When publishing the crew size", func() {
			UpdateCrewSize(7)

			Convey("Then the gauge reflects it", func() {
				So(testutil.ToFloat64(globalManager.crewSize), ShouldEqual, 7)
			})
		})

		Convey("When recording loop and surface activity", func() {
			So(func() {
				RecordPollTick(120)
				RecordIconMove()
				RecordRenderError("initialize")
				RecordHTTPRequest("/stats", "GET", "200")
				RecordHTTPRequestDuration("/stats", "GET", "200", 1.5)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(4)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
