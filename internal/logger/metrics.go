package logger

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ResultsRecordedTotal counts recorded task and sub-task answers
	ResultsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivetrack_results_recorded_total",
			Help: "Total number of recorded task and sub-task results",
		},
		[]string{"kind", "classification"},
	)

	// InspectionCompletionsTotal counts closed inspections by outcome
	InspectionCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivetrack_inspection_completions_total",
			Help: "Total number of inspections closed, by outcome",
		},
		[]string{"outcome"}, // "completed", "failed" or "rejected"
	)

	// GatedRejectionsTotal counts results rejected because sub-tasks were pending
	GatedRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drivetrack_gated_rejections_total",
			Help: "Total number of task results rejected by sub-task gating",
		},
	)

	// InspectionsGeneratedTotal counts inspections spawned from templates
	InspectionsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivetrack_inspections_generated_total",
			Help: "Total number of inspections generated from templates",
		},
		[]string{"frequency"},
	)

	// TransactionDuration measures engine transaction latency
	TransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drivetrack_transaction_duration_seconds",
			Help:    "Engine transaction duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// CacheHitTotal counts attention cache hits and misses
	CacheHitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivetrack_cache_hit_total",
			Help: "Total number of attention cache hits and misses",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	// OperatorsByStatus tracks the last performance batch by status
	OperatorsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drivetrack_operators_by_status",
			Help: "Number of operators by performance status in the last batch",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// InitMetrics registers Prometheus metrics
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ResultsRecordedTotal)
		prometheus.MustRegister(InspectionCompletionsTotal)
		prometheus.MustRegister(GatedRejectionsTotal)
		prometheus.MustRegister(InspectionsGeneratedTotal)
		prometheus.MustRegister(TransactionDuration)
		prometheus.MustRegister(CacheHitTotal)
		prometheus.MustRegister(OperatorsByStatus)
	})
}

// MetricsHandler returns HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
