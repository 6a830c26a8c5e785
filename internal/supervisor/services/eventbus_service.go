// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"fmt"
	"time"
)

// EventBus is the Start/Shutdown lifecycle of the event bus components
// assembled in cmd/server (embedded NATS server, publisher, subscriber and
// watermill router).
type EventBus interface {
	// Start begins consuming. It may block until the consumers are
	// subscribed but must not block for the lifetime of the bus.
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
}

// EventBusService adapts EventBus to suture.Service.
type EventBusService struct {
	bus             EventBus
	shutdownTimeout time.Duration
}

// NewEventBusService wraps bus. Non-positive timeouts become 30s, enough
// for the router to finish in-flight catalog events.
func NewEventBusService(bus EventBus, shutdownTimeout time.Duration) *EventBusService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	return &EventBusService{bus: bus, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. A failed start is returned so the
// supervisor retries with backoff.
func (s *EventBusService) Serve(ctx context.Context) error {
	if err := s.bus.Start(ctx); err != nil {
		return fmt.Errorf("event bus start failed: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.bus.Shutdown(shutdownCtx)

	return ctx.Err()
}

func (s *EventBusService) String() string {
	return "event-bus"
}
