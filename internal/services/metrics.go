package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// relayEvents counts processed events by reply branch and terminal outcome.
	relayEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Inbound events processed by the relay, by branch and outcome.",
		},
		[]string{"branch", "outcome"},
	)

	// relayStageFailures counts best-effort stage failures (record, update,
	// complete, dispatch, notify).
	relayStageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_stage_failures_total",
			Help: "Failures per pipeline stage.",
		},
		[]string{"stage"},
	)

	// relayCompletionSeconds observes completion latency, including failures.
	relayCompletionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_completion_duration_seconds",
			Help:    "Duration of completion calls in seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(relayEvents, relayStageFailures, relayCompletionSeconds)
}
