// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package vectorindex provides in-memory, per-tenant similarity indexes over
product embeddings.

An Index holds fixed-dimension vectors with metadata and answers exact cosine
searches, optionally restricted by a metadata Filter. Capacity is bounded:
when an insert would exceed MaxElements the oldest-inserted record is evicted.
Re-inserting an existing id replaces it and moves it to the newest position.

The Manager owns one Index per tenant, creates them lazily, restores their
snapshots from a SnapshotStore on first use and caps the number of resident
tenants, dropping the earliest-created tenant when the cap is exceeded.

# Filters

A Filter maps metadata keys to constraints, all of which must hold:

	vectorindex.Filter{
		"category": "shoes",                                // equality
		"brand":    []any{"acme", "globex"},                // membership
		"price":    map[string]any{"$gte": 20, "$lt": 100}, // range
		"color":    map[string]any{"$ne": "red"},           // inequality
	}

Numbers compare by value regardless of their Go type, so a filter value of
int 42 matches stored metadata float64(42) as decoded from JSON.

# Concurrency

Every Index carries its own sync.RWMutex. Searches share the lock and writes
take it exclusively. The Manager lock only guards the tenant registry and is
never held while an index is searched or persisted.
*/
package vectorindex
