package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_chat_requests_total",
			Help: "Total number of chat turns by final outcome.",
		},
		[]string{"outcome"},
	)
	gateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_gate_decisions_total",
			Help: "Safety gate decisions for generated SQL candidates.",
		},
		[]string{"decision"},
	)
	interpretationDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdb_interpretation_degraded_total",
			Help: "Generation outputs that could not be parsed as JSON and fell back to heuristic extraction.",
		},
	)
	generationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdb_generation_duration_seconds",
			Help:    "Latency of calls to the text generation provider.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"status"},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdb_query_duration_seconds",
			Help:    "Latency of approved chat queries against the database.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	introspectionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdb_introspection_duration_seconds",
			Help:    "Latency of schema introspection round trips.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		chatRequestsTotal,
		gateDecisionsTotal,
		interpretationDegradedTotal,
		generationDurationSeconds,
		queryDurationSeconds,
		introspectionDurationSeconds,
	)
}

func IncrementChatRequest(outcome string) {
	chatRequestsTotal.WithLabelValues(outcome).Inc()
}

func IncrementGateDecision(decision string) {
	gateDecisionsTotal.WithLabelValues(decision).Inc()
}

func IncrementInterpretationDegraded() {
	interpretationDegradedTotal.Inc()
}

func ObserveGeneration(elapsed time.Duration, err error) {
	generationDurationSeconds.WithLabelValues(statusLabel(err)).Observe(elapsed.Seconds())
}

func ObserveQuery(elapsed time.Duration, err error) {
	queryDurationSeconds.WithLabelValues(statusLabel(err)).Observe(elapsed.Seconds())
}

func ObserveIntrospection(elapsed time.Duration, err error) {
	introspectionDurationSeconds.WithLabelValues(statusLabel(err)).Observe(elapsed.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
