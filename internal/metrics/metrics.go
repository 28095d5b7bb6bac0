package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leads"

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0}

// Metrics holds the process collectors and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry

	storageOps     *prometheus.CounterVec   // By backend and operation
	storageErrors  *prometheus.CounterVec   // By backend and operation
	storageLatency *prometheus.HistogramVec // By backend and operation

	httpRequests *prometheus.CounterVec   // By method, route and status code
	httpLatency  *prometheus.HistogramVec // By method and route
}

// New creates Metrics on a dedicated registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of storage backend operations",
		}, []string{"backend", "operation"}),

		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of failed storage backend operations",
		}, []string{"backend", "operation"}),

		storageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Storage backend operation duration in seconds",
			Buckets:   latencyBuckets,
		}, []string{"backend", "operation"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),

		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   latencyBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.storageOps,
		m.storageErrors,
		m.storageLatency,
		m.httpRequests,
		m.httpLatency,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStorage records one backend operation.
func (m *Metrics) ObserveStorage(backend, operation string, elapsed time.Duration, err error) {
	m.storageOps.WithLabelValues(backend, operation).Inc()
	m.storageLatency.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.storageErrors.WithLabelValues(backend, operation).Inc()
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
