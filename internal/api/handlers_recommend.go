// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/recommend"
)

// recommendationList is the payload of list recommendation endpoints.
type recommendationList struct {
	ProductID       string                `json:"product_id,omitempty"`
	Recommendations []recommend.Candidate `json:"recommendations"`
	Count           int                   `json:"count"`
}

func newRecommendationList(productID string, candidates []recommend.Candidate) recommendationList {
	if candidates == nil {
		candidates = []recommend.Candidate{}
	}
	return recommendationList{ProductID: productID, Recommendations: candidates, Count: len(candidates)}
}

// SimilarProducts handles GET /tenants/{tenantID}/products/{productID}/similar
func (h *Handler) SimilarProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	productID := chi.URLParam(r, "productID")

	topK, ok := h.topK(r, h.config.Recommend.SimilarTopK)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "top_k must be a positive integer", nil)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	candidates := h.engine.SimilarProducts(r.Context(), tenantID(r), productID, topK, filter)
	respondSuccess(w, r, http.StatusOK, newRecommendationList(productID, candidates), start)
}

// BoughtTogether handles GET /tenants/{tenantID}/products/{productID}/bought-together
func (h *Handler) BoughtTogether(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	productID := chi.URLParam(r, "productID")

	topK, ok := h.topK(r, h.config.Recommend.BoughtTogetherTopK)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "top_k must be a positive integer", nil)
		return
	}

	candidates := h.engine.FrequentlyBoughtTogether(r.Context(), tenantID(r), productID, topK)
	respondSuccess(w, r, http.StatusOK, newRecommendationList(productID, candidates), start)
}

// CartRecommendations handles POST /tenants/{tenantID}/recommendations/cart
func (h *Handler) CartRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req CartRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}

	candidates := h.engine.CartRecommendations(r.Context(), tenantID(r), req.ProductIDs, h.capTopK(req.TopK))
	respondSuccess(w, r, http.StatusOK, newRecommendationList("", candidates), start)
}

// Personalized handles POST /tenants/{tenantID}/recommendations/personalized
func (h *Handler) Personalized(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req recommend.PersonalizedRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	req.TenantID = tenantID(r)
	req.TopK = h.capTopK(req.TopK)

	ctx, cancel := h.requestContext(r)
	defer cancel()

	candidates := h.engine.Personalized(ctx, &req)
	respondSuccess(w, r, http.StatusOK, struct {
		UserID string `json:"user_id"`
		recommendationList
	}{req.UserID, newRecommendationList("", candidates)}, start)
}

// Voice handles POST /tenants/{tenantID}/recommendations/voice
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req recommend.VoiceRequest
	if !decodeJSON(w, r, h.config.API.MaxBodyBytes, &req) {
		return
	}
	req.TenantID = tenantID(r)

	ctx, cancel := h.requestContext(r)
	defer cancel()

	respondSuccess(w, r, http.StatusOK, h.engine.Voice(ctx, &req), start)
}
