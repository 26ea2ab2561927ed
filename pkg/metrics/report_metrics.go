// Package metrics provides Prometheus metrics for weekly-report processing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Report processing metrics
var (
	// reportOperationsTotal records aggregate/export runs.
	// Labels:
	//   - operation: "aggregate" or "export"
	//   - mode: "structured" or "flattened"
	//   - status: "success", "empty_selection", "no_submitted", "failed"
	reportOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weeknote_report_operations_total",
			Help: "Total number of weekly-report aggregate/export operations",
		},
		[]string{"operation", "mode", "status"},
	)

	// reportOperationDuration records end-to-end latency including the store fetch.
	// Buckets: 5ms .. 10s
	reportOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weeknote_report_operation_duration_seconds",
			Help:    "Duration of weekly-report aggregate/export operations in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"operation"},
	)

	// malformedContentTotal counts report contents that failed to parse and were
	// aggregated as empty.
	malformedContentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weeknote_report_malformed_content_total",
			Help: "Total number of weekly reports whose content could not be parsed",
		},
	)
)

func init() {
	prometheus.MustRegister(reportOperationsTotal)
	prometheus.MustRegister(reportOperationDuration)
	prometheus.MustRegister(malformedContentTotal)
}

// RecordReportOperation records the outcome of an aggregate/export run.
func RecordReportOperation(operation, mode, status string) {
	reportOperationsTotal.WithLabelValues(operation, mode, status).Inc()
}

// RecordReportDuration records the duration of an aggregate/export run.
func RecordReportDuration(operation string, durationSeconds float64) {
	reportOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordMalformedContent increments the malformed content counter.
func RecordMalformedContent() {
	malformedContentTotal.Inc()
}
