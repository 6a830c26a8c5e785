// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

// OrderHistory is the stored order log; implemented by database.DB.
type OrderHistory interface {
	Tenants(ctx context.Context) ([]string, error)
	LoadOrders(ctx context.Context, tenantID string, since time.Time, limit int) ([]rules.Order, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RuleLearner mines association rules; implemented by recommend.Engine.
type RuleLearner interface {
	LearnFromOrders(ctx context.Context, tenantID string, orders []rules.Order, opts rules.Options) (rules.LearnResult, error)
}

// LearnServiceConfig configures LearnService.
type LearnServiceConfig struct {
	OnStartup bool
	Interval  time.Duration

	// Lookback limits each run to orders newer than now-Lookback. Zero
	// mines the whole history.
	Lookback time.Duration

	// MaxOrders caps the orders loaded per tenant. Zero is unlimited.
	MaxOrders int

	// Retention purges orders older than now-Retention before each run.
	// Zero keeps everything.
	Retention time.Duration

	Options rules.Options

	// RunTimeout bounds one full pass over every tenant.
	RunTimeout time.Duration
}

// LearnService relearns every tenant's rules from stored order history on
// a schedule.
type LearnService struct {
	history OrderHistory
	learner RuleLearner
	config  LearnServiceConfig
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLearnService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLearnService(history OrderHistory, learner RuleLearner, cfg LearnServiceConfig, logger zerolog.Logger) *LearnService {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}
	return &LearnService{
		history: history,
		learner: learner,
		config:  cfg,
		logger:  logger.With().Str("service", "learn").Logger(),
		now:     time.Now,
	}
}

// Serve implements suture.Service. Failed runs are logged and retried on
// the next tick rather than restarting the service.
func (s *LearnService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Dur("lookback", s.config.Lookback).
		Msg("Learn service started")

	if s.config.OnStartup {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *LearnService) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	summary, err := s.RunOnce(runCtx)
	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.
		Int("tenants", summary.Tenants).
		Int("learned", summary.Learned).
		Int("skipped", summary.Skipped).
		Int64("purged", summary.Purged).
		Dur("duration", time.Since(start)).
		Msg("Rule learning pass finished")
}

// LearnSummary reports one pass over every tenant.
type LearnSummary struct {
	Tenants int
	Learned int   // rules written across tenants
	Skipped int   // tenants with insufficient signal
	Purged  int64 // orders removed by retention
}

// RunOnce applies retention, then relearns the rules of every tenant with
// stored orders. A failing tenant does not stop the others; all errors are
// joined.
func (s *LearnService) RunOnce(ctx context.Context) (LearnSummary, error) {
	var (
		summary LearnSummary
		errs    []error
	)
	now := s.now()

	if s.config.Retention > 0 {
		purged, err := s.history.PurgeBefore(ctx, now.Add(-s.config.Retention))
		if err != nil {
			errs = append(errs, fmt.Errorf("purge orders: %w", err))
		}
		summary.Purged = purged
	}

	tenants, err := s.history.Tenants(ctx)
	if err != nil {
		return summary, errors.Join(append(errs, fmt.Errorf("list tenants: %w", err))...)
	}

	var since time.Time
	if s.config.Lookback > 0 {
		since = now.Add(-s.config.Lookback)
	}

	for _, tenantID := range tenants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		orders, err := s.history.LoadOrders(ctx, tenantID, since, s.config.MaxOrders)
		if err != nil {
			errs = append(errs, fmt.Errorf("load orders for %s: %w", tenantID, err))
			continue
		}

		res, err := s.learner.LearnFromOrders(ctx, tenantID, orders, s.config.Options)
		if err != nil {
			errs = append(errs, fmt.Errorf("learn rules for %s: %w", tenantID, err))
			continue
		}

		summary.Tenants++
		summary.Learned += res.Learned
		if res.InsufficientSignal {
			summary.Skipped++
		}
		s.logger.Debug().
			Str("tenant", tenantID).
			Int("orders", len(orders)).
			Int("learned", res.Learned).
			Bool("insufficient_signal", res.InsufficientSignal).
			Msg("Tenant rules learned")
	}

	return summary, errors.Join(errs...)
}

func (s *LearnService) String() string {
	return "learn-service"
}
