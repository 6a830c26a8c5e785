// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package storage persists tenant index snapshots and association rules.
//
// Two backends implement both vectorindex.SnapshotStore and rules.RuleStore:
//
//   - BadgerStore keeps JSON documents in an embedded BadgerDB under
//     "snapshot:{tenant}" and "rules:{tenant}" keys.
//   - FileStore writes one gzip-compressed, checksummed file per tenant and
//     kind into a directory, replacing files atomically.
//
// Both return (nil, nil) for tenants that were never saved, so a fresh
// tenant starts from an empty index.
//
// # Thread Safety
//
// Both stores are safe for concurrent use. FileStore serialises writes per
// file; BadgerStore relies on Badger transactions.
package storage
