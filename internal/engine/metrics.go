package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "gqlstore"
	engineSubsystem  = "engine"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	// operations counts queries and mutations.
	// Labels: operation (e.g. createCharge), outcome (ok, error_payload, failed)
	operations *prometheus.CounterVec

	// duration measures operation latency.
	// Labels: operation
	duration *prometheus.HistogramVec

	// unknownEnum counts discriminants resolved to a default variant.
	// Labels: enum
	unknownEnum *prometheus.CounterVec

	// results observes how many records a query returned.
	// Labels: operation
	results *prometheus.HistogramVec
}

// NewMetrics registers the engine collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler and a
// fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: engineSubsystem,
			Name:      "operations_total",
			Help:      "Total queries and mutations by outcome",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: engineSubsystem,
			Name:      "operation_duration_seconds",
			Help:      "Query and mutation latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"operation"}),
		unknownEnum: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: engineSubsystem,
			Name:      "unknown_enum_values_total",
			Help:      "Stored discriminants resolved to a default variant",
		}, []string{"enum"}),
		results: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: engineSubsystem,
			Name:      "query_results",
			Help:      "Records returned per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"operation"}),
	}
}

// Outcome labels.
const (
	outcomeOK           = "ok"
	outcomeErrorPayload = "error_payload"
	outcomeFailed       = "failed"
)
