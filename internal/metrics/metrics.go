package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "neowatch"

// Metrics holds the Prometheus collectors for the feed ingestion path.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,http_error,transport_error,decode_error,circuit_open}
	UpstreamDuration prometheus.Histogram
	ShapeErrors      prometheus.Counter
	FetchedObjects   prometheus.Counter
	RetryAttempts    *prometheus.CounterVec // labels: result={success,failure}
	RetryBackoffs    prometheus.Counter
}

// New creates the collectors and registers them with reg. Passing nil
// registers with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	m := build()
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.ShapeErrors,
		m.FetchedObjects,
		m.RetryAttempts,
		m.RetryBackoffs,
	)
	return m
}

// NewForTesting returns unregistered collectors so tests can build as many as
// they need without "already registered" panics.
func NewForTesting() *Metrics {
	return build()
}

func build() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Round trips to the NEO feed provider by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of NEO feed provider round trips.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ShapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_shape_errors_total",
			Help:      "Provider payloads rejected during normalization or aggregation.",
		}),
		FetchedObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_objects_total",
			Help:      "Near-Earth object records received from the provider.",
		}),
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumer_fetch_attempts_total",
			Help:      "Consumer-side fetch attempts by result.",
		}, []string{"result"}),
		RetryBackoffs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumer_backoff_waits_total",
			Help:      "Completed consumer-side backoff waits.",
		}),
	}
}
