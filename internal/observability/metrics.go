// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipebox_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RecipeWrites counts aggregate writes by operation and outcome.
	RecipeWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_recipe_writes_total",
		Help: "Recipe aggregate writes by operation (create, update, delete, upload_image) and outcome",
	}, []string{"operation", "outcome"})

	// AttributeResolutions counts get-or-create lookups for tags and ingredients.
	AttributeResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_attribute_resolutions_total",
		Help: "Tag and ingredient get-or-create resolutions by kind and result (created, reused)",
	}, []string{"kind", "result"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// RecordRecipeWrite increments the aggregate write counter.
func RecordRecipeWrite(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RecipeWrites.WithLabelValues(operation, outcome).Inc()
}

// RecordAttributeResolution increments the get-or-create counter.
func RecordAttributeResolution(kind string, created bool) {
	result := "reused"
	if created {
		result = "created"
	}
	AttributeResolutions.WithLabelValues(kind, result).Inc()
}
