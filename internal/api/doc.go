// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package api exposes the catalog index, the association rules and the
recommendation engine over HTTP.

# Routing

Routes are served by a chi router:

	/api/v1/health/live                    liveness probe
	/api/v1/health/ready                   readiness probe (DuckDB, event router)
	/api/v1/stats                          index statistics across tenants (admin)
	/api/v1/tenants/{tenantID}/...         tenant-scoped catalog, rules and recommendations
	/metrics                               Prometheus metrics

Tenant routes require a bearer token whose tenant claim covers the path
tenant (see package auth) and a role allowed by the policy (see package
authz).

# Responses

Every JSON response uses the same envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-01-02T15:04:05Z", "query_time_ms": 3}
	}

Errors set status to "error" and carry an error object with a machine
readable code:

	{
	  "status": "error",
	  "data": null,
	  "metadata": {"timestamp": "2026-01-02T15:04:05Z"},
	  "error": {"code": "VALIDATION_ERROR", "message": "top_k must be at least 1"}
	}

Recommendation endpoints never fail because a signal is unavailable: a
missing product, an empty rule set or an embedding outage yields an empty
list.
*/
package api
