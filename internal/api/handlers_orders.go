// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/shelfwise/internal/eventprocessor"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

// RecordOrders handles POST /tenants/{tenantID}/orders
func (h *Handler) RecordOrders(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req RecordOrdersRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	if !h.checkBatch(w, r, len(req.Orders)) {
		return
	}

	tenant := tenantID(r)
	if req.Async {
		if h.publisher == nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Asynchronous ingestion is not enabled", nil)
			return
		}
		event := eventprocessor.NewOrderEvent(tenant, req.Orders)
		if err := h.publisher.PublishOrders(r.Context(), h.config.NATS.OrdersTopic, event); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeEventPublish, "Failed to queue orders", err)
			return
		}
		respondSuccess(w, r, http.StatusAccepted, map[string]interface{}{
			"event_id": event.EventID,
			"queued":   len(req.Orders),
		}, start)
		return
	}

	if h.orders == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Order history is not configured", nil)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	stored, err := h.orders.RecordOrders(ctx, tenant, req.Orders)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "Failed to store orders", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]int{
		"received": len(req.Orders),
		"stored":   stored,
	}, start)
}

// LearnRules handles POST /tenants/{tenantID}/orders/learn
//
// Orders in the body are mined directly. An empty body, or one without
// orders, loads the stored history instead.
func (h *Handler) LearnRules(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req LearnRequest
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
			return
		}
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	tenant := tenantID(r)
	orders := req.Orders
	source := "request"
	if len(orders) == 0 {
		if h.orders == nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "orders are required when no order history is configured", nil)
			return
		}
		since := time.Time{}
		if lookback := h.config.Learn.Lookback; lookback > 0 {
			since = time.Now().Add(-lookback)
		}
		if req.Since != nil {
			since = *req.Since
		}
		limit := h.config.Learn.MaxOrders
		if req.Limit > 0 {
			limit = req.Limit
		}

		var err error
		orders, err = h.orders.LoadOrders(ctx, tenant, since, limit)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "Failed to load order history", err)
			return
		}
		source = "history"
	}

	opts := h.config.Rules
	if req.Options != nil {
		opts = *req.Options
	}

	result, err := h.engine.LearnFromOrders(ctx, tenant, orders, opts)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("source", source).
		Int("orders", len(orders)).
		Int("learned", result.Learned).
		Bool("insufficient_signal", result.InsufficientSignal).
		Msg("Association rules learned")

	respondSuccess(w, r, http.StatusOK, struct {
		rules.LearnResult
		Orders int    `json:"orders"`
		Source string `json:"source"`
	}{result, len(orders), source}, start)
}

// RulesSummary handles GET /tenants/{tenantID}/rules
func (h *Handler) RulesSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant := tenantID(r)
	stats := h.engine.Stats(r.Context(), tenant)

	summary := map[string]interface{}{
		"products":     stats.RuleProducts,
		"stats":        stats.Rules,
		"last_updated": nil,
	}
	if !stats.RulesUpdated.IsZero() {
		summary["last_updated"] = stats.RulesUpdated
	}
	if h.orders != nil {
		if count, err := h.orders.OrderCount(r.Context(), tenant); err == nil {
			summary["stored_orders"] = count
		} else {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Order count failed")
		}
	}
	respondSuccess(w, r, http.StatusOK, summary, start)
}
