package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	ReconcilePasses  prometheus.Counter
	ReconcileLatency prometheus.Histogram
	ReconcileErrors  prometheus.Counter

	BotActions *prometheus.CounterVec
	BotErrors  *prometheus.CounterVec

	ReportsFinalized prometheus.Counter
	SummarizerCalls  prometheus.Counter
	SessionMerges    prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		ReconcilePasses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meetscribe_reconcile_passes_total",
			Help: "Total number of calendar reconciliation passes",
		}),
		ReconcileLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meetscribe_reconcile_duration_seconds",
			Help:    "Calendar reconciliation pass latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		ReconcileErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meetscribe_reconcile_errors_total",
			Help: "Total number of failed reconciliation passes",
		}),

		// action: "create", "update", "delete"
		BotActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meetscribe_bot_actions_total",
			Help: "Total number of bot lifecycle actions by type",
		}, []string{"action"}),
		BotErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meetscribe_bot_errors_total",
			Help: "Total number of failed bot provider calls by action",
		}, []string{"action"}),

		ReportsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meetscribe_reports_finalized_total",
			Help: "Total number of event reports finalized",
		}),
		SummarizerCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meetscribe_summarizer_calls_total",
			Help: "Total number of summarizer invocations",
		}),
		SessionMerges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meetscribe_session_merges_total",
			Help: "Total number of session merges across providers",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordReconcilePass records a completed reconciliation pass and its latency
func (m *Metrics) RecordReconcilePass(seconds float64) {
	if m == nil {
		return
	}
	m.ReconcilePasses.Inc()
	m.ReconcileLatency.Observe(seconds)
}

// RecordReconcileError records a failed reconciliation pass
func (m *Metrics) RecordReconcileError() {
	if m == nil {
		return
	}
	m.ReconcileErrors.Inc()
}

// RecordBotAction records a successful bot lifecycle action
func (m *Metrics) RecordBotAction(action string) {
	if m == nil {
		return
	}
	m.BotActions.WithLabelValues(action).Inc()
}

// RecordBotError records a failed bot provider call
func (m *Metrics) RecordBotError(action string) {
	if m == nil {
		return
	}
	m.BotErrors.WithLabelValues(action).Inc()
}

// RecordReportFinalized records a finalized event report
func (m *Metrics) RecordReportFinalized() {
	if m == nil {
		return
	}
	m.ReportsFinalized.Inc()
}

// RecordSummarizerCall records one summarizer invocation
func (m *Metrics) RecordSummarizerCall() {
	if m == nil {
		return
	}
	m.SummarizerCalls.Inc()
}

// RecordSessionMerge records one session merge
func (m *Metrics) RecordSessionMerge() {
	if m == nil {
		return
	}
	m.SessionMerges.Inc()
}
