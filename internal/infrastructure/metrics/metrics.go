package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CRM Server Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crm",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Conversation claim attempts
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "server",
			Name:      "conversation_claims_total",
			Help:      "Conversation claim attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Messages persisted
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "server",
			Name:      "messages_total",
			Help:      "Messages persisted by sender type",
		},
		[]string{"sender_type"},
	)

	// Broadcast publishes
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "server",
			Name:      "broadcasts_total",
			Help:      "Broadcast channel publishes by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	// AI analyses
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "server",
			Name:      "ai_analyses_total",
			Help:      "Conversation AI analyses by outcome",
		},
		[]string{"outcome"},
	)

	// AI analysis duration
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "crm",
			Subsystem: "server",
			Name:      "ai_analysis_duration_seconds",
			Help:      "Conversation AI analysis duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30},
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordClaim records a conversation claim attempt
func RecordClaim(outcome string) {
	ClaimsTotal.WithLabelValues(outcome).Inc()
}

// RecordMessage records a persisted message
func RecordMessage(senderType string) {
	MessagesTotal.WithLabelValues(senderType).Inc()
}

// RecordBroadcast records a broadcast publish
func RecordBroadcast(event, outcome string) {
	BroadcastsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordAnalysis records an AI analysis
func RecordAnalysis(outcome string, durationSec float64) {
	AnalysesTotal.WithLabelValues(outcome).Inc()
	AnalysisDuration.Observe(durationSec)
}
