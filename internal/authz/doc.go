// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package authz decides which API operations a role may perform.

Decisions come from a Casbin RBAC model with role inheritance:

	reader  read catalog, recommendations and rules
	ingest  reader plus catalog and rules writes
	admin   everything, including cross-tenant endpoints

The model and default policy are embedded. A policy CSV file may replace
the default policy through the security.policy_path setting.

Tenant isolation is not a policy concern: the auth package checks the
tenant claim before authz runs.
*/
package authz
