// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package auth authenticates API callers with tenant-scoped bearer tokens.
//
// Tokens are HS256 JWTs (golang-jwt/jwt/v5) carrying a tenant and a role:
//
//	{"sub": "storefront-a", "tenant": "shop-a", "role": "reader", "iss": "shelfwise", "exp": ...}
//
// The tenant "*" is only meaningful together with the admin role and grants
// access to every tenant. Authenticate verifies the token and stores the
// claims in the request context; RequireTenant compares the claims with the
// {tenantID} route parameter. Role permissions are checked separately by
// the authz package.
//
// With auth mode "none" every request is treated as an admin of all
// tenants. Config validation rejects that mode in production.
package auth
