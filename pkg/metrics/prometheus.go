// Package metrics provides Prometheus metrics for the ISS tracker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tracker.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Upstream API
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	apiErrors          *prometheus.CounterVec

	// Poll loop
	pollTicks    prometheus.Counter
	pollLatency  prometheus.Histogram
	issLatitude  prometheus.Gauge
	issLongitude prometheus.Gauge
	crewSize     prometheus.Gauge

	// Render surface
	renderErrors *prometheus.CounterVec
	iconMoves    prometheus.Counter

	// Status server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "isstrack",
		subsystem:        "tracker",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often callers should refresh sampled gauges.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.apiRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "api_requests_total",
		Help:        "Total number of upstream API requests by endpoint and status code",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "status_code"})

	m.apiRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "api_request_duration_milliseconds",
		Help:        "Upstream API round-trip time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint"})

	m.apiErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "api_errors_total",
		Help:        "Upstream API failures by endpoint and kind",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "kind"})

	m.pollTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "poll_ticks_total",
		Help:        "Completed position polls",
		ConstLabels: m.customLabels,
	})

	m.pollLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "poll_latency_milliseconds",
		Help:        "Time spent fetching and rendering one position",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.issLatitude = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "iss_latitude_degrees",
		Help:        "Latitude of the last polled ISS position",
		ConstLabels: m.customLabels,
	})

	m.issLongitude = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "iss_longitude_degrees",
		Help:        "Longitude of the last polled ISS position",
		ConstLabels: m.customLabels,
	})

	m.crewSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "crew_in_space",
		Help:        "Number of people in space reported by the crew manifest",
		ConstLabels: m.customLabels,
	})

	m.renderErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_errors_total",
		Help:        "Render surface failures by operation",
		ConstLabels: m.customLabels,
	}, []string{"op"})

	m.iconMoves = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "icon_moves_total",
		Help:        "Times the vehicle icon was repositioned",
		ConstLabels: m.customLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Status server requests by endpoint, method and status code",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "Status server request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: m.customLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutines",
		Help:        "Number of goroutines",
		ConstLabels: m.customLabels,
	})
}

// RecordAPIRequest counts one upstream request and observes its latency.
func RecordAPIRequest(endpoint, statusCode string, latencyMs float64) {
	globalManager.apiRequests.WithLabelValues(endpoint, statusCode).Inc()
	globalManager.apiRequestDuration.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordAPIError counts an upstream failure of the given kind (transport, status, decode, parse, range).
func RecordAPIError(endpoint, kind string) {
	globalManager.apiErrors.WithLabelValues(endpoint, kind).Inc()
}

// RecordPollTick counts a completed poll and its latency.
func RecordPollTick(latencyMs float64) {
	globalManager.pollTicks.Inc()
	globalManager.pollLatency.Observe(latencyMs)
}

// UpdatePosition publishes the last polled coordinates.
func UpdatePosition(lat, lon float64) {
	globalManager.issLatitude.Set(lat)
	globalManager.issLongitude.Set(lon)
}

// UpdateCrewSize publishes the crew manifest size.
func UpdateCrewSize(n int) {
	globalManager.crewSize.Set(float64(n))
}

// RecordRenderError counts a render surface failure.
func RecordRenderError(op string) {
	globalManager.renderErrors.WithLabelValues(op).Inc()
}

// RecordIconMove counts an icon reposition.
func RecordIconMove() {
	globalManager.iconMoves.Inc()
}

// RecordHTTPRequest records a status server request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records status server request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// RefreshInterval is how often the process gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
