package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_total",
			Help: "Total number of conversation turns by response status",
		},
		[]string{"status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route"},
	)

	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_intent_classified_total",
			Help: "Total number of utterances per classified intent",
		},
		[]string{"intent"},
	)

	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_collaborator_calls_total",
			Help: "Total number of calls into LLM, embedding and catalog collaborators",
		},
		[]string{"collaborator", "operation", "outcome"},
	)

	SearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_search_candidates",
			Help:    "Number of catalog items indexed per search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_sessions_active",
			Help: "Number of sessions held by the in-memory repository",
		},
	)

	OrdersBooked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_orders_booked_total",
			Help: "Total number of booking attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveCall records the outcome of a single collaborator call.
func ObserveCall(collaborator, operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	CollaboratorCalls.WithLabelValues(collaborator, operation, outcome).Inc()
}
