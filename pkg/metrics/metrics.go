package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP surface
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Catalog backend calls
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec

	// Entity store
	StoreRefreshes *prometheus.CounterVec
	StoreSize      *prometheus.GaugeVec

	// Save pipeline
	GuardConflicts     *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec

	// Redis broker
	EventsPublished *prometheus.CounterVec
}

// New creates the application metrics and registers them on reg. Passing a
// fresh registry keeps tests independent of the global default registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total number of catalog backend requests",
		}, []string{"endpoint", "status"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of catalog backend requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		StoreRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "refreshes_total",
			Help:      "Total number of entity store refreshes",
		}, []string{"kind", "status"}),
		StoreSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "entities",
			Help:      "Current number of cached entities",
		}, []string{"kind"}),

		GuardConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inflight_conflicts_total",
			Help:      "Mutations rejected because the same entity was already being saved",
		}, []string{"kind"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Saves rejected before reaching the backend",
		}, []string{"kind"}),

		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of catalog events published",
		}, []string{"type", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestDuration,
			m.RequestTotal,
			m.BackendRequests,
			m.BackendLatency,
			m.StoreRefreshes,
			m.StoreSize,
			m.GuardConflicts,
			m.ValidationFailures,
			m.EventsPublished,
		)
	}

	return m
}

// NewNop builds unregistered metrics, handy in tests.
func NewNop() *Metrics {
	return New("test", nil)
}
