// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered on the default registry through promauto and exposed at
the /metrics endpoint in Prometheus text format:

	curl http://localhost:8484/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Index Metrics:
  - index_operation_duration_seconds: Search and filter latency (histogram)
    Labels: operation (search, filter, similar)
  - index_records: Records held per tenant (gauge)
  - index_tenants: Resident tenant indexes (gauge)
  - index_evictions_total: Capacity evictions (counter)
    Labels: kind (record, tenant)
  - index_snapshot_operations_total: Snapshot store calls (counter)
    Labels: operation (load, save, delete), status

Rule Metrics:
  - rules_learn_duration_seconds: Rule mining duration (histogram)
  - rules_learn_total: Learning runs by outcome (counter)
  - rules_generated_total: Rules produced before truncation (counter)

Recommendation Metrics:
  - recommendation_duration_seconds: Latency per request type (histogram)
  - recommendation_candidates_total: Candidates contributed per signal (counter)
  - recommendation_empty_total: Requests answered without results (counter)

Embedding Metrics:
  - embedding_requests_total: Embedding provider calls by status (counter)
  - embedding_request_duration_seconds: Provider latency (histogram)
  - embedding_cache_hits_total / embedding_cache_misses_total (counter)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total: Requests by result (success, failure, rejected)
  - circuit_breaker_state_transitions_total: State changes (counter)

Event Metrics:
  - events_consumed_total / events_failed_total / events_published_total
    Labels: topic

Database Metrics:
  - duckdb_query_duration_seconds: Query latency (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
*/
package metrics
