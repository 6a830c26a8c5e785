// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package vectorindex

import "context"

// SnapshotStore persists tenant indexes between process restarts.
//
// LoadSnapshot returns (nil, nil) when the tenant has never been saved.
// Implementations must be safe for concurrent use across tenants.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, tenantID string) ([]Record, error)
	SaveSnapshot(ctx context.Context, tenantID string, records []Record) error
	DeleteSnapshot(ctx context.Context, tenantID string) error
}

// nopStore keeps nothing. It backs managers created without a store.
type nopStore struct{}

func (nopStore) LoadSnapshot(context.Context, string) ([]Record, error) { return nil, nil }
func (nopStore) SaveSnapshot(context.Context, string, []Record) error   { return nil }
func (nopStore) DeleteSnapshot(context.Context, string) error           { return nil }
