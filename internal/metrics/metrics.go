// Package metrics provides Prometheus metrics for the sync engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderRequestsTotal tracks outbound provider requests by status class
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "breakdown",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of outbound legislative-data provider requests",
		},
		[]string{"status"},
	)

	// ProviderRequestDuration tracks provider request latency
	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "breakdown",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound provider requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	// PagesTotal tracks fetched pages by category and outcome
	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "breakdown",
			Subsystem: "fetch",
			Name:      "pages_total",
			Help:      "Total number of pages fetched by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// DuplicatesTotal tracks records dropped by deduplication
	DuplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "breakdown",
			Subsystem: "sync",
			Name:      "duplicates_total",
			Help:      "Total number of duplicate external records dropped",
		},
		[]string{"entity"},
	)

	// ReconcileTotal tracks reconcile outcomes by entity and status
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "breakdown",
			Subsystem: "sync",
			Name:      "reconcile_total",
			Help:      "Total number of reconciled records by entity and status",
		},
		[]string{"entity", "status"},
	)

	// SyncRunDuration tracks entry point run duration
	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "breakdown",
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"entity", "status"},
	)

	// EnrichmentTotal tracks enrichment task results
	EnrichmentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "breakdown",
			Subsystem: "enrichment",
			Name:      "tasks_total",
			Help:      "Total number of enrichment tasks by result",
		},
		[]string{"result"},
	)

	// EnrichmentInFlight tracks enrichment tasks currently running
	EnrichmentInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "breakdown",
			Subsystem: "enrichment",
			Name:      "tasks_in_flight",
			Help:      "Number of enrichment tasks currently running",
		},
	)
)

// RecordProviderRequest records one outbound provider request.
func RecordProviderRequest(status string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(status).Inc()
	ProviderRequestDuration.Observe(duration.Seconds())
}

// RecordPage records one fetched page.
func RecordPage(category string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	PagesTotal.WithLabelValues(category, outcome).Inc()
}

// RecordDuplicates adds n dropped duplicates for entity.
func RecordDuplicates(entity string, n int) {
	if n <= 0 {
		return
	}
	DuplicatesTotal.WithLabelValues(entity).Add(float64(n))
}

// RecordReconcile records one reconcile outcome.
func RecordReconcile(entity, status string) {
	ReconcileTotal.WithLabelValues(entity, status).Inc()
}

// RecordSyncRun records one finished entry point run.
func RecordSyncRun(entity, status string, duration time.Duration) {
	SyncRunDuration.WithLabelValues(entity, status).Observe(duration.Seconds())
}

// RecordEnrichment records one finished enrichment task.
func RecordEnrichment(result string) {
	EnrichmentTotal.WithLabelValues(result).Inc()
}
