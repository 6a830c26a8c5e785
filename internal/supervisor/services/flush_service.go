// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// IndexFlusher persists every resident tenant index; implemented by
// vectorindex.Manager.
type IndexFlusher interface {
	Flush(ctx context.Context) error
}

// GarbageCollector reclaims storage space; implemented by storage.BadgerStore.
type GarbageCollector interface {
	RunGC()
}

// FlushServiceConfig configures FlushService.
type FlushServiceConfig struct {
	// Interval between snapshot flushes. Zero disables periodic flushing;
	// the final flush on shutdown still runs.
	Interval time.Duration

	// GCInterval between value log GC runs. Ignored without a collector.
	GCInterval time.Duration

	// ShutdownTimeout bounds the final flush.
	ShutdownTimeout time.Duration
}

// FlushService periodically saves index snapshots so a crash loses at most
// one interval of catalog changes.
type FlushService struct {
	index  IndexFlusher
	gc     GarbageCollector
	config FlushServiceConfig
	logger zerolog.Logger
}

// NewFlushService creates the service. gc may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFlushService(index IndexFlusher, gc GarbageCollector, cfg FlushServiceConfig, logger zerolog.Logger) *FlushService {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &FlushService{
		index:  index,
		gc:     gc,
		config: cfg,
		logger: logger.With().Str("service", "flush").Logger(),
	}
}

// Serve implements suture.Service.
func (s *FlushService) Serve(ctx context.Context) error {
	var flushC, gcC <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		flushC = ticker.C
	}
	if s.gc != nil && s.config.GCInterval > 0 {
		ticker := time.NewTicker(s.config.GCInterval)
		defer ticker.Stop()
		gcC = ticker.C
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Dur("gc_interval", s.config.GCInterval).
		Msg("Flush service started")

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
			s.flush(flushCtx)
			cancel()
			return ctx.Err()

		case <-flushC:
			s.flush(ctx)

		case <-gcC:
			start := time.Now()
			s.gc.RunGC()
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("Value log GC finished")
		}
	}
}

func (s *FlushService) flush(ctx context.Context) {
	start := time.Now()
	if err := s.index.Flush(ctx); err != nil {
		// Snapshots stay dirty and are retried on the next tick.
		s.logger.Warn().Err(err).Msg("Snapshot flush failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("Snapshots flushed")
}

func (s *FlushService) String() string {
	return "flush-service"
}
