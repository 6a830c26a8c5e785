// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/eventprocessor"
	"github.com/tomtom215/shelfwise/internal/logging"
)

// AddItems handles POST /tenants/{tenantID}/catalog/items
func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req AddItemsRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	if !h.checkBatch(w, r, len(req.Items)) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	tenant := tenantID(r)
	added := h.index.AddBatch(ctx, tenant, req.Items)
	logging.Ctx(r.Context()).Info().
		Int("received", len(req.Items)).
		Int("added", added).
		Msg("Catalog items indexed")

	respondSuccess(w, r, http.StatusOK, map[string]int{
		"received": len(req.Items),
		"added":    added,
		"skipped":  len(req.Items) - added,
	}, start)
}

// IngestProducts handles POST /tenants/{tenantID}/catalog/products
func (h *Handler) IngestProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req IngestProductsRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	if !h.checkBatch(w, r, len(req.Products)) {
		return
	}

	tenant := tenantID(r)
	if req.Async {
		if h.publisher == nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Asynchronous ingestion is not enabled", nil)
			return
		}
		event := eventprocessor.NewCatalogEvent(tenant, eventprocessor.ActionUpsert)
		event.Products = req.Products
		if err := h.publisher.PublishCatalog(r.Context(), h.config.NATS.CatalogTopic, event); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeEventPublish, "Failed to queue catalog", err)
			return
		}
		respondSuccess(w, r, http.StatusAccepted, map[string]interface{}{
			"event_id": event.EventID,
			"queued":   len(req.Products),
		}, start)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.engine.InitializeCatalog(ctx, tenant, req.Products)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res, start)
}

// GetItem handles GET /tenants/{tenantID}/catalog/items/{itemID}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	itemID := chi.URLParam(r, "itemID")

	record, ok := h.index.Get(r.Context(), tenantID(r), itemID)
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("Item %q not found", itemID), nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, record, start)
}

// RemoveItem handles DELETE /tenants/{tenantID}/catalog/items/{itemID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	itemID := chi.URLParam(r, "itemID")

	if !h.index.Remove(r.Context(), tenantID(r), itemID) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("Item %q not found", itemID), nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{"removed": itemID}, start)
}

// RemoveItems handles POST /tenants/{tenantID}/catalog/items/delete
func (h *Handler) RemoveItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req DeleteItemsRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	if !h.checkBatch(w, r, len(req.IDs)) {
		return
	}

	tenant := tenantID(r)
	if req.Async {
		if h.publisher == nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Asynchronous ingestion is not enabled", nil)
			return
		}
		event := eventprocessor.NewCatalogEvent(tenant, eventprocessor.ActionDelete)
		event.ProductIDs = req.IDs
		if err := h.publisher.PublishCatalog(r.Context(), h.config.NATS.CatalogTopic, event); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeEventPublish, "Failed to queue deletion", err)
			return
		}
		respondSuccess(w, r, http.StatusAccepted, map[string]interface{}{"event_id": event.EventID, "queued": len(req.IDs)}, start)
		return
	}

	removed := 0
	for _, id := range req.IDs {
		if h.index.Remove(r.Context(), tenant, id) {
			removed++
		}
	}
	respondSuccess(w, r, http.StatusOK, map[string]int{"requested": len(req.IDs), "removed": removed}, start)
}

// ClearCatalog handles DELETE /tenants/{tenantID}/catalog
func (h *Handler) ClearCatalog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.index.Clear(ctx, tenantID(r)); err != nil {
		respondDomainError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Msg("Catalog cleared")
	respondSuccess(w, r, http.StatusOK, map[string]bool{"cleared": true}, start)
}

// FlushCatalog handles POST /tenants/{tenantID}/catalog/flush. The snapshot is
// written only when the index changed since its last save.
func (h *Handler) FlushCatalog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.index.FlushTenant(ctx, tenantID(r)); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]bool{"flushed": true}, start)
}

// Search handles POST /tenants/{tenantID}/catalog/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req SearchRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	topK := req.TopK
	if topK == 0 {
		topK = h.config.Recommend.SimilarTopK
	}

	results := h.index.Search(r.Context(), tenantID(r), req.Vector, h.capTopK(topK), req.Filter)
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	}, start)
}

// Query handles POST /tenants/{tenantID}/catalog/query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req QueryRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	topK := req.TopK
	if topK == 0 {
		topK = h.config.API.MaxTopK
	}

	results := h.index.QueryByFilter(r.Context(), tenantID(r), h.capTopK(topK), req.Filter)
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	}, start)
}

// CatalogStats handles GET /tenants/{tenantID}/catalog/stats
func (h *Handler) CatalogStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, http.StatusOK, h.engine.Stats(r.Context(), tenantID(r)), start)
}

// checkBatch rejects batches above the configured maximum.
func (h *Handler) checkBatch(w http.ResponseWriter, r *http.Request, n int) bool {
	if limit := h.config.API.MaxBatchSize; limit > 0 && n > limit {
		respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
			fmt.Sprintf("Batch of %d exceeds the limit of %d", n, limit), nil)
		return false
	}
	return true
}
