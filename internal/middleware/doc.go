// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids.
  - PrometheusMetrics records request counts, latencies and in-flight
    requests, labelled by chi route pattern.
  - AccessLog writes one structured log line per request and warns on
    slow requests.

All middleware has the chi signature func(http.Handler) http.Handler.
*/
package middleware
