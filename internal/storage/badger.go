// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// Key prefixes for BadgerDB storage
const (
	snapshotKeyPrefix = "snapshot:"
	rulesKeyPrefix    = "rules:"
)

// BadgerConfig configures the Badger backend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory keeps everything in memory; used by tests.
	InMemory bool `koanf:"in_memory"`

	SyncWrites  bool `koanf:"sync_writes"`
	Compression bool `koanf:"compression"`

	// GCRatio is the discard ratio passed to value log GC.
	GCRatio float64 `koanf:"gc_ratio"`
}

// BadgerStore stores snapshots and rules in BadgerDB.
type BadgerStore struct {
	db      *badger.DB
	gcRatio float64
	logger  zerolog.Logger
}

// OpenBadger opens (or creates) the database described by cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadger(cfg BadgerConfig, logger zerolog.Logger) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	gcRatio := cfg.GCRatio
	if gcRatio <= 0 || gcRatio >= 1 {
		gcRatio = 0.5
	}

	s := &BadgerStore{
		db:      db,
		gcRatio: gcRatio,
		logger:  logger.With().Str("component", "storage").Str("backend", "badger").Logger(),
	}
	s.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Storage opened")
	return s, nil
}

// LoadSnapshot returns the stored records of a tenant index.
func (s *BadgerStore) LoadSnapshot(ctx context.Context, tenantID string) ([]vectorindex.Record, error) {
	var doc snapshotDocument
	found, err := s.get(ctx, snapshotKeyPrefix+tenantID, &doc)
	if err != nil || !found {
		return nil, err
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", tenantID, err)
	}
	return doc.Records, nil
}

// SaveSnapshot replaces the stored records of a tenant index.
func (s *BadgerStore) SaveSnapshot(ctx context.Context, tenantID string, records []vectorindex.Record) error {
	return s.set(ctx, snapshotKeyPrefix+tenantID, snapshotDocument{
		Format:   formatVersion,
		TenantID: tenantID,
		SavedAt:  time.Now().UTC(),
		Records:  records,
	})
}

// DeleteSnapshot removes a tenant snapshot. Missing snapshots are not an error.
func (s *BadgerStore) DeleteSnapshot(ctx context.Context, tenantID string) error {
	return s.delete(ctx, snapshotKeyPrefix+tenantID)
}

// LoadRules returns the stored rule set of a tenant.
func (s *BadgerStore) LoadRules(ctx context.Context, tenantID string) (*rules.RuleSet, error) {
	var doc rulesDocument
	found, err := s.get(ctx, rulesKeyPrefix+tenantID, &doc)
	if err != nil || !found {
		return nil, err
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, fmt.Errorf("rules %s: %w", tenantID, err)
	}
	return doc.Rules, nil
}

// SaveRules replaces the stored rule set of a tenant.
func (s *BadgerStore) SaveRules(ctx context.Context, tenantID string, rs *rules.RuleSet) error {
	return s.set(ctx, rulesKeyPrefix+tenantID, rulesDocument{
		Format:   formatVersion,
		TenantID: tenantID,
		Rules:    rs,
	})
}

// RunGC reclaims value log space until Badger reports nothing left to rewrite.
func (s *BadgerStore) RunGC() {
	for {
		if err := s.db.RunValueLogGC(s.gcRatio); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				s.logger.Warn().Err(err).Msg("Value log GC failed")
			}
			return
		}
	}
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	s.logger.Info().Msg("Storage closed")
	return nil
}

func (s *BadgerStore) get(ctx context.Context, key string, target any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, target)
		})
	})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return found, nil
}

func (s *BadgerStore) set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
