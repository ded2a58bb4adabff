// Package metrics records Prometheus metrics for infrastructure packages.
// It sits below middleware so that database code can record without an import cycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SlowQueryThreshold marks a query as slow
const SlowQueryThreshold = 100 * time.Millisecond

var (
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmops_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	dbQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmops_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation"},
	)

	dbSlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmops_db_slow_queries_total",
			Help: "Total number of slow database queries (>100ms)",
		},
		[]string{"operation"},
	)

	// dbTransactions counts finished transaction scopes by outcome
	dbTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmops_db_transactions_total",
			Help: "Total number of transactions by outcome",
		},
		[]string{"outcome"},
	)
)

// Transaction outcomes
const (
	TxCommitted    = "committed"
	TxRolledBack   = "rolled_back"
	TxCommitFailed = "commit_failed"
)

// RecordDBQuery records database query metrics
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if duration > SlowQueryThreshold {
		dbSlowQueries.WithLabelValues(operation).Inc()
	}
}

// RecordDBError records a database query error
func RecordDBError(operation string) {
	dbQueryErrors.WithLabelValues(operation).Inc()
}

// RecordTransaction records the outcome of a transaction
func RecordTransaction(outcome string) {
	dbTransactions.WithLabelValues(outcome).Inc()
}
