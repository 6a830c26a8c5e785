// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Index Metrics
	IndexOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "index_operation_duration_seconds",
			Help:    "Duration of vector index queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"}, // "search", "filter", "similar"
	)

	IndexRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "index_records",
			Help: "Number of records held by a tenant index",
		},
		[]string{"tenant"},
	)

	IndexTenants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_tenants",
			Help: "Number of resident tenant indexes",
		},
	)

	IndexEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_evictions_total",
			Help: "Total number of capacity evictions",
		},
		[]string{"kind"}, // "record", "tenant"
	)

	IndexSnapshotOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_snapshot_operations_total",
			Help: "Total number of snapshot store operations",
		},
		[]string{"operation", "status"},
	)

	// Rule Mining Metrics
	RulesLearnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rules_learn_duration_seconds",
			Help:    "Duration of association rule mining in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	RulesLearnTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rules_learn_total",
			Help: "Total number of rule learning runs by outcome",
		},
		[]string{"outcome"}, // "learned", "insufficient", "error"
	)

	RulesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rules_generated_total",
			Help: "Total number of association rules generated before truncation",
		},
	)

	// Recommendation Metrics
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"type"},
	)

	RecommendationCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_candidates_total",
			Help: "Total number of candidates contributed per signal",
		},
		[]string{"signal"},
	)

	RecommendationEmpty = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_empty_total",
			Help: "Total number of recommendation requests answered without results",
		},
		[]string{"type"},
	)

	// Embedding Provider Metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding provider requests",
		},
		[]string{"status"}, // "success", "error"
	)

	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Embedding provider request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Metrics
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of events handled successfully",
		},
		[]string{"topic"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_failed_total",
			Help: "Total number of events whose handler returned an error",
		},
		[]string{"topic"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published",
		},
		[]string{"topic"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a rejected request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordIndexOperation records the latency of an index query.
func RecordIndexOperation(operation string, duration time.Duration) {
	IndexOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetIndexRecords publishes the size of a tenant index.
func SetIndexRecords(tenant string, size int) {
	IndexRecords.WithLabelValues(tenant).Set(float64(size))
}

// ForgetTenant drops per-tenant series once a tenant leaves memory.
func ForgetTenant(tenant string) {
	IndexRecords.DeleteLabelValues(tenant)
}

// SetIndexTenants publishes the number of resident tenants.
func SetIndexTenants(n int) {
	IndexTenants.Set(float64(n))
}

// RecordIndexEviction counts a record or tenant evicted for capacity.
func RecordIndexEviction(kind string) {
	IndexEvictions.WithLabelValues(kind).Inc()
}

// RecordSnapshotOperation counts a snapshot store call.
func RecordSnapshotOperation(operation string, err error) {
	IndexSnapshotOperations.WithLabelValues(operation, statusLabel(err)).Inc()
}

// RecordRulesLearn records one rule mining run.
func RecordRulesLearn(duration time.Duration, outcome string, rulesGenerated int) {
	RulesLearnDuration.Observe(duration.Seconds())
	RulesLearnTotal.WithLabelValues(outcome).Inc()
	if rulesGenerated > 0 {
		RulesGenerated.Add(float64(rulesGenerated))
	}
}

// RecordRecommendation records a recommendation request of the given type.
func RecordRecommendation(kind string, duration time.Duration, results int) {
	RecommendationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if results == 0 {
		RecommendationEmpty.WithLabelValues(kind).Inc()
	}
}

// RecordSignalCandidates counts candidates produced by one personalization signal.
func RecordSignalCandidates(signal string, n int) {
	RecommendationCandidates.WithLabelValues(signal).Add(float64(n))
}

// RecordEmbeddingRequest records an embedding provider call.
func RecordEmbeddingRequest(duration time.Duration, err error) {
	EmbeddingDuration.Observe(duration.Seconds())
	EmbeddingRequests.WithLabelValues(statusLabel(err)).Inc()
}

// RecordEmbeddingCache records an embedding cache lookup.
func RecordEmbeddingCache(hit bool) {
	if hit {
		EmbeddingCacheHits.Inc()
	} else {
		EmbeddingCacheMisses.Inc()
	}
}

// RecordEventConsumed records the outcome of handling one event.
func RecordEventConsumed(topic string, err error) {
	if err != nil {
		EventsFailed.WithLabelValues(topic).Inc()
		return
	}
	EventsConsumed.WithLabelValues(topic).Inc()
}

// RecordEventPublished counts a published event.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
