// Package metrics provides Prometheus metrics for the catalog API, the importer
// and the selection resolver.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes recorded by the resolver.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeError   = "error"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mes_api_requests_total",
			Help: "Total number of catalog API requests",
		},
		[]string{"route", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mes_api_request_duration_seconds",
			Help:    "Catalog API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Resolver metrics
	ResolverFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mes_resolver_fetches_total",
			Help: "Catalog fetches issued by selection resolvers, by field and outcome",
		},
		[]string{"field", "outcome"},
	)

	ResolverAutoFillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mes_resolver_autofills_total",
			Help: "Auto-fill cascades applied by selection resolvers",
		},
		[]string{"source"},
	)

	// Import metrics
	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mes_import_rows_total",
			Help: "Work-order import rows by result",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one API request.
func RecordAPIRequest(route, method, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(route, method, status).Inc()
	APIRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordResolverFetch records the outcome of one resolver fetch.
func RecordResolverFetch(field, outcome string) {
	ResolverFetchesTotal.WithLabelValues(field, outcome).Inc()
}

// RecordAutoFill records an auto-fill cascade triggered from source.
func RecordAutoFill(source string) {
	ResolverAutoFillsTotal.WithLabelValues(source).Inc()
}

// RecordImportRows records imported and rejected row counts.
func RecordImportRows(imported, rejected int) {
	ImportRowsTotal.WithLabelValues("imported").Add(float64(imported))
	ImportRowsTotal.WithLabelValues("rejected").Add(float64(rejected))
}
