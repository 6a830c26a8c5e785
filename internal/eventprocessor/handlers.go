// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

// CatalogSink indexes products; implemented by recommend.Engine.
type CatalogSink interface {
	InitializeCatalog(ctx context.Context, tenantID string, products []recommend.Product) (recommend.CatalogResult, error)
}

// IndexWriter removes indexed products; implemented by vectorindex.Manager.
type IndexWriter interface {
	Remove(ctx context.Context, tenantID, id string) bool
	Clear(ctx context.Context, tenantID string) error
}

// OrderSink stores orders for rule learning; implemented by database.DB.
type OrderSink interface {
	RecordOrders(ctx context.Context, tenantID string, orders []rules.Order) (int, error)
}

// Handlers applies catalog and order events.
type Handlers struct {
	catalog CatalogSink
	index   IndexWriter
	orders  OrderSink
	logger  zerolog.Logger
}

// NewHandlers creates the event handlers. orders may be nil, in which case
// order events are not consumed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandlers(catalog CatalogSink, index IndexWriter, orders OrderSink, logger zerolog.Logger) *Handlers {
	return &Handlers{
		catalog: catalog,
		index:   index,
		orders:  orders,
		logger:  logger.With().Str("component", "event-handlers").Logger(),
	}
}

// Register adds the consumers to r.
func (h *Handlers) Register(r *Router, sub message.Subscriber, catalogTopic, ordersTopic string) {
	r.AddConsumerHandler("catalog", catalogTopic, sub, h.consume(catalogTopic, h.HandleCatalog))
	if h.orders != nil {
		r.AddConsumerHandler("orders", ordersTopic, sub, h.consume(ordersTopic, h.HandleOrders))
	}
}

func (h *Handlers) consume(topic string, fn func(*message.Message) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := fn(msg)
		metrics.RecordEventConsumed(topic, err)
		return err
	}
}

// HandleCatalog applies one catalog event.
func (h *Handlers) HandleCatalog(msg *message.Message) error {
	event, err := DecodeCatalogEvent(msg.Payload)
	if err != nil {
		h.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Rejected catalog event")
		return err
	}
	ctx := h.eventContext(msg.Context(), event.EventID, event.TenantID)
	log := logging.Ctx(ctx)

	switch event.Action {
	case ActionUpsert:
		res, err := h.catalog.InitializeCatalog(ctx, event.TenantID, event.Products)
		if err != nil {
			return fmt.Errorf("apply catalog upsert: %w", err)
		}
		log.Info().
			Int("indexed", res.Indexed).
			Int("skipped", res.Skipped).
			Msg("Catalog event applied")
	case ActionDelete:
		removed := 0
		for _, id := range event.ProductIDs {
			if h.index.Remove(ctx, event.TenantID, id) {
				removed++
			}
		}
		log.Info().Int("removed", removed).Int("requested", len(event.ProductIDs)).Msg("Catalog delete applied")
	case ActionClear:
		if err := h.index.Clear(ctx, event.TenantID); err != nil {
			return fmt.Errorf("apply catalog clear: %w", err)
		}
		log.Info().Msg("Catalog cleared")
	}
	return nil
}

// HandleOrders stores the orders of one order event.
func (h *Handlers) HandleOrders(msg *message.Message) error {
	event, err := DecodeOrderEvent(msg.Payload)
	if err != nil {
		h.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Rejected order event")
		return err
	}
	ctx := h.eventContext(msg.Context(), event.EventID, event.TenantID)

	n, err := h.orders.RecordOrders(ctx, event.TenantID, event.Orders)
	if err != nil {
		return fmt.Errorf("record orders: %w", err)
	}
	logging.Ctx(ctx).Debug().Int("orders", n).Msg("Order event recorded")
	return nil
}

func (h *Handlers) eventContext(ctx context.Context, eventID, tenantID string) context.Context {
	ctx = logging.ContextWithLogger(ctx, h.logger)
	ctx = logging.ContextWithCorrelationID(ctx, eventID)
	return logging.ContextWithTenantID(ctx, tenantID)
}
