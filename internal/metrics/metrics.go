// Package metrics provides Prometheus metrics for observability.
// Metrics are organized by domain: HTTP requests, content writes and blob storage.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "news_publishing"
)

var (
	// HTTP metrics - track request volume and latency
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Content metrics - track article and category writes
	ContentWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "writes_total",
			Help:      "Total number of content writes by entity, operation, and result",
		},
		[]string{"entity", "operation", "result"},
	)

	SlugConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "slug_conflicts_total",
			Help:      "Unique slug violations caught by the database after the pre-check",
		},
		[]string{"entity"},
	)

	// Blob metrics - track uploads and cleanup
	BlobOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobs",
			Name:      "operations_total",
			Help:      "Total number of blob store operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	BlobOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blobs",
			Name:      "operation_duration_seconds",
			Help:      "Blob store operation duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveContentWrite records the outcome of a create, update or delete
func ObserveContentWrite(entity, operation string, err error) {
	ContentWritesTotal.WithLabelValues(entity, operation, result(err)).Inc()
}

// ObserveSlugConflict records a unique violation that slipped past the pre-check
func ObserveSlugConflict(entity string) {
	SlugConflictsTotal.WithLabelValues(entity).Inc()
}

// ObserveBlobOperation records a blob store call started at start
func ObserveBlobOperation(operation string, start time.Time, err error) {
	BlobOperationsTotal.WithLabelValues(operation, result(err)).Inc()
	BlobOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RegisterDBStats exposes connection pool statistics for db
func RegisterDBStats(db *sql.DB, dbName string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
}
