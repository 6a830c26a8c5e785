// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// Backend names.
const (
	BackendBadger = "badger"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Store persists both snapshots and rules.
type Store interface {
	vectorindex.SnapshotStore
	rules.RuleStore
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is "badger", "file" or "memory". Memory disables persistence.
	Backend string       `koanf:"backend"`
	Badger  BadgerConfig `koanf:"badger"`

	// Dir is the FileStore directory.
	Dir string `koanf:"dir"`
}

// Open returns the configured store. The memory backend returns (nil, nil):
// the index manager and rule miner then keep everything in memory.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendBadger:
		s, err := OpenBadger(cfg.Badger, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile:
		s, err := NewFileStore(cfg.Dir, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory, "":
		logger.Warn().Msg("Persistence disabled, indexes and rules will not survive restarts")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
