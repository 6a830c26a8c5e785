// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/eventprocessor"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// CatalogIndex is the part of the tenant index manager the API uses.
type CatalogIndex interface {
	AddBatch(ctx context.Context, tenantID string, items []vectorindex.Item) int
	Remove(ctx context.Context, tenantID, id string) bool
	Get(ctx context.Context, tenantID, id string) (vectorindex.Record, bool)
	Search(ctx context.Context, tenantID string, query []float32, topK int, filter vectorindex.Filter) []vectorindex.Result
	QueryByFilter(ctx context.Context, tenantID string, topK int, filter vectorindex.Filter) []vectorindex.Result
	Clear(ctx context.Context, tenantID string) error
	FlushTenant(ctx context.Context, tenantID string) error
	Stats(ctx context.Context, tenantID string) vectorindex.Stats
	GlobalStats() vectorindex.GlobalStats
	Tenants() []string
}

// Recommender is the recommendation engine.
type Recommender interface {
	InitializeCatalog(ctx context.Context, tenantID string, products []recommend.Product) (recommend.CatalogResult, error)
	SimilarProducts(ctx context.Context, tenantID, productID string, topK int, filter vectorindex.Filter) []recommend.Candidate
	FrequentlyBoughtTogether(ctx context.Context, tenantID, productID string, topK int) []recommend.Candidate
	CartRecommendations(ctx context.Context, tenantID string, cart []string, topK int) []recommend.Candidate
	LearnFromOrders(ctx context.Context, tenantID string, orders []rules.Order, opts rules.Options) (rules.LearnResult, error)
	Personalized(ctx context.Context, req *recommend.PersonalizedRequest) []recommend.Candidate
	Voice(ctx context.Context, req *recommend.VoiceRequest) *recommend.VoiceResponse
	Stats(ctx context.Context, tenantID string) recommend.TenantStats
}

// OrderStore is the DuckDB order history.
type OrderStore interface {
	RecordOrders(ctx context.Context, tenantID string, orders []rules.Order) (int, error)
	LoadOrders(ctx context.Context, tenantID string, since time.Time, limit int) ([]rules.Order, error)
	OrderCount(ctx context.Context, tenantID string) (int64, error)
	Ping(ctx context.Context) error
}

// EventPublisher queues catalog and order events for asynchronous ingestion.
type EventPublisher interface {
	PublishCatalog(ctx context.Context, topic string, event *eventprocessor.CatalogEvent) error
	PublishOrders(ctx context.Context, topic string, event *eventprocessor.OrderEvent) error
}

// ReadinessCheck reports an error when a dependency cannot serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_health.go: health probes and global stats
//   - handlers_catalog.go: catalog index endpoints
//   - handlers_orders.go: order history and rule learning
//   - handlers_recommend.go: recommendation endpoints
type Handler struct {
	config    *config.Config
	index     CatalogIndex
	engine    Recommender
	orders    OrderStore     // optional
	publisher EventPublisher // optional
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]ReadinessCheck
}

// NewHandler creates a new API handler. orders may be nil when no order
// history database is configured.
func NewHandler(cfg *config.Config, index CatalogIndex, engine Recommender, orders OrderStore) *Handler {
	return &Handler{
		config:    cfg,
		index:     index,
		engine:    engine,
		orders:    orders,
		startTime: time.Now(),
		checks:    make(map[string]ReadinessCheck),
	}
}

// SetEventPublisher enables asynchronous ingestion through the event bus.
func (h *Handler) SetEventPublisher(p EventPublisher) {
	h.publisher = p
}

// AddReadinessCheck registers a dependency probed by /health/ready.
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Handler) readinessChecks() map[string]ReadinessCheck {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]ReadinessCheck, len(h.checks)+1)
	for name, check := range h.checks {
		out[name] = check
	}
	if h.orders != nil {
		out["database"] = h.orders.Ping
	}
	return out
}

// requestContext bounds a handler's work by the server timeout.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.config.Server.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

// tenantID returns the tenant path parameter.
func tenantID(r *http.Request) string {
	return chi.URLParam(r, "tenantID")
}

// topK reads the top_k (or limit) query parameter, applying def when it is
// absent and capping it at the configured maximum. ok is false for values
// that are not positive integers.
func (h *Handler) topK(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("top_k")
	if raw == "" {
		raw = r.URL.Query().Get("limit")
	}
	if raw == "" {
		return def, true
	}
	n, err := parsePositiveInt(raw)
	if err != nil {
		return 0, false
	}
	return h.capTopK(n), true
}

// capTopK bounds a requested result count.
func (h *Handler) capTopK(n int) int {
	if limit := h.config.API.MaxTopK; limit > 0 && n > limit {
		return limit
	}
	return n
}
