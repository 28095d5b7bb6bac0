package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dtroode/leads-server/internal/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template.
type Metrics struct {
	metrics *metrics.Metrics
}

// NewMetrics creates a new Metrics middleware.
func NewMetrics(m *metrics.Metrics) *Metrics {
	return &Metrics{metrics: m}
}

// Handle observes each request. Requests outside registered routes share one
// label to bound cardinality.
func (m *Metrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		m.metrics.ObserveRequest(r.Method, routeTemplate(r), rec.status, time.Since(start))
	})
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}
