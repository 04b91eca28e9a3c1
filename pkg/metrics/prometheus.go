// Package metrics provides Prometheus metrics for the luck web tier and its API client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for API client calls.
const (
	OutcomeOK        = "ok"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
)

// Default latency buckets in milliseconds. The client timeout caps calls at 15s.
var defaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000}

// Manager manages all Prometheus metrics for the luck web tier.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// API client metrics, one series per backend endpoint.
	apiCalls        *prometheus.CounterVec
	apiCallDuration *prometheus.HistogramVec

	// Web host metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	proxyErrors         *prometheus.CounterVec

	// Bundle metrics.
	bundleFiles prometheus.Gauge

	// System metrics.
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
		namespace:        "luck",
		subsystem:        "web",
		histogramBuckets: defaultBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.apiCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "api_calls_total",
		Help:        "Backend API calls issued by the client, by endpoint, method and outcome",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "outcome"})

	m.apiCallDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "api_call_duration_milliseconds",
		Help:        "Backend API call round trip in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Requests served by the web host, by route, method and status code",
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "Web host request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})

	m.proxyErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "proxy_errors_total",
		Help:        "Requests the dev proxy could not forward to the backend",
		ConstLabels: m.constLabels,
	}, []string{"prefix"})

	m.bundleFiles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "bundle_files",
		Help:        "Files in the last emitted or loaded static bundle",
		ConstLabels: m.constLabels,
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "Heap bytes allocated by the process",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutines",
		Help:        "Current number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// ObserveCall records one backend API call.
func (m *Manager) ObserveCall(endpoint, method, outcome string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.apiCalls.WithLabelValues(endpoint, method, outcome).Inc()
	m.apiCallDuration.WithLabelValues(endpoint, method).Observe(toMillis(d))
}

// ObserveRequest records one request served by the web host.
func (m *Manager) ObserveRequest(route, method, statusCode string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(toMillis(d))
}

// RecordProxyError counts a failed forward for the given proxy prefix.
func (m *Manager) RecordProxyError(prefix string) {
	if !m.enabled {
		return
	}
	m.proxyErrors.WithLabelValues(prefix).Inc()
}

// SetBundleFiles sets the bundle file gauge.
func (m *Manager) SetBundleFiles(n int) {
	if !m.enabled {
		return
	}
	m.bundleFiles.Set(float64(n))
}

// UpdateSystem sets the memory and goroutine gauges.
func (m *Manager) UpdateSystem(allocBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(allocBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Default returns the global manager registered on the custom registry.
func Default() *Manager {
	return globalManager
}

// SetBundleFiles sets the bundle gauge on the global manager.
func SetBundleFiles(n int) {
	globalManager.SetBundleFiles(n)
}

// UpdateSystem sets system gauges on the global manager.
func UpdateSystem(allocBytes uint64, goroutines int) {
	globalManager.UpdateSystem(allocBytes, goroutines)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
