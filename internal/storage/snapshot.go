// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package storage

import (
	"errors"
	"time"

	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// formatVersion is bumped when the stored document layout changes.
const formatVersion = 1

// ErrUnsupportedFormat is returned for documents written by a newer layout.
var ErrUnsupportedFormat = errors.New("unsupported storage format version")

// Stores are interchangeable behind both persistence interfaces.
var (
	_ vectorindex.SnapshotStore = (*BadgerStore)(nil)
	_ rules.RuleStore           = (*BadgerStore)(nil)
	_ vectorindex.SnapshotStore = (*FileStore)(nil)
	_ rules.RuleStore           = (*FileStore)(nil)
)

// snapshotDocument is the stored form of a tenant index.
type snapshotDocument struct {
	Format   int                  `json:"format"`
	TenantID string               `json:"tenant_id"`
	SavedAt  time.Time            `json:"saved_at"`
	Records  []vectorindex.Record `json:"records"`
}

// rulesDocument is the stored form of a tenant rule set.
type rulesDocument struct {
	Format   int            `json:"format"`
	TenantID string         `json:"tenant_id"`
	Rules    *rules.RuleSet `json:"rules"`
}

func checkFormat(format int) error {
	if format > formatVersion {
		return ErrUnsupportedFormat
	}
	return nil
}
