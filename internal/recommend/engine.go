// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// ErrNoIndex is returned by NewEngine when no catalog index is supplied.
var ErrNoIndex = errors.New("catalog index is required")

// Signal names, in merge order.
const (
	signalTwoTower = iota
	signalViewed
	signalPurchases
	signalCategory
	signalCount
)

var signalNames = [signalCount]string{"two_tower", "viewed", "purchases", "category"}

// Engine produces recommendations from the catalog index and association rules.
// It is safe for concurrent use.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	index    CatalogIndex
	rules    RuleSource
	embedder Embedder

	rerankMu  sync.RWMutex
	rerankers []Reranker
}

// NewEngine creates a new recommendation engine. rules and embedder may be nil,
// which disables the signals that depend on them.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, index CatalogIndex, ruleSource RuleSource, embedder Embedder, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if index == nil {
		return nil, ErrNoIndex
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		index:    index,
		rules:    ruleSource,
		embedder: embedder,
	}, nil
}

// Config returns the engine configuration. It must not be modified.
func (e *Engine) Config() *Config {
	return e.config
}

// RegisterReranker appends a reranker to the personalized post-processing pipeline.
func (e *Engine) RegisterReranker(rr Reranker) {
	e.rerankMu.Lock()
	defer e.rerankMu.Unlock()

	e.rerankers = append(e.rerankers, rr)
	e.logger.Info().
		Str("reranker", rr.Name()).
		Msg("registered reranker")
}

// SimilarProducts returns products closest to productID. topK <= 0 uses the default.
func (e *Engine) SimilarProducts(ctx context.Context, tenantID, productID string, topK int, filter vectorindex.Filter) []Candidate {
	start := time.Now()
	if topK <= 0 {
		topK = e.config.SimilarTopK
	}

	results := e.index.FindSimilar(ctx, tenantID, productID, topK, filter)
	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = Candidate{
			ProductID:  r.ID,
			Score:      r.Score,
			Similarity: int(math.Round(r.Score * 100)),
			Metadata:   r.Metadata,
			Reason:     ReasonSimilarProduct,
		}
	}

	metrics.RecordRecommendation("similar", time.Since(start), len(out))
	return out
}

// FrequentlyBoughtTogether returns products often ordered with productID.
func (e *Engine) FrequentlyBoughtTogether(ctx context.Context, tenantID, productID string, topK int) []Candidate {
	start := time.Now()
	if topK <= 0 {
		topK = e.config.BoughtTogetherTopK
	}
	if e.rules == nil {
		return []Candidate{}
	}

	assoc := e.rules.Associations(ctx, tenantID, productID, topK)
	out := make([]Candidate, len(assoc))
	for i, r := range assoc {
		out[i] = Candidate{
			ProductID:     r.ProductID,
			Score:         r.Confidence,
			CoOccurrences: r.CoOccurrences,
			Reason:        ReasonBoughtTogether,
		}
	}
	e.enrich(ctx, tenantID, out)

	metrics.RecordRecommendation("bought_together", time.Since(start), len(out))
	return out
}

// CartRecommendations suggests products to add to a cart.
func (e *Engine) CartRecommendations(ctx context.Context, tenantID string, cart []string, topK int) []Candidate {
	if topK <= 0 {
		topK = e.config.BoughtTogetherTopK
	}
	if e.rules == nil {
		return []Candidate{}
	}

	recs := e.rules.CartRecommendations(ctx, tenantID, cart, topK)
	out := make([]Candidate, len(recs))
	for i, r := range recs {
		out[i] = Candidate{
			ProductID: r.ProductID,
			Score:     r.Score,
			Sources:   r.Sources,
			Reason:    ReasonBoughtTogether,
		}
	}
	e.enrich(ctx, tenantID, out)
	return out
}

// LearnFromOrders mines association rules from order history.
func (e *Engine) LearnFromOrders(ctx context.Context, tenantID string, orders []rules.Order, opts rules.Options) (rules.LearnResult, error) {
	if e.rules == nil {
		return rules.LearnResult{}, errors.New("association rules are not configured")
	}
	return e.rules.Learn(ctx, tenantID, orders, opts)
}

// Personalized merges every available signal for one shopper, reranks and
// truncates the result.
func (e *Engine) Personalized(ctx context.Context, req *PersonalizedRequest) []Candidate {
	start := time.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = e.config.PersonalizedTopK
	}

	var (
		wg    sync.WaitGroup
		slots [signalCount][]Candidate
	)
	run := func(signal int, fn func() []Candidate) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slots[signal] = fn()
		}()
	}

	if summary := UserSummary(&req.Profile, req.RecentlyPurchased); summary != "" && e.embedder != nil {
		run(signalTwoTower, func() []Candidate { return e.twoTower(ctx, req.TenantID, summary) })
	}
	if len(req.RecentlyViewed) > 0 && req.RecentlyViewed[0] != "" {
		run(signalViewed, func() []Candidate { return e.viewed(ctx, req.TenantID, req.RecentlyViewed[0]) })
	}
	if len(req.RecentlyPurchased) > 0 && e.rules != nil {
		run(signalPurchases, func() []Candidate { return e.purchases(ctx, req.TenantID, req.RecentlyPurchased) })
	}
	if cats := req.Profile.Preferences.Categories; len(cats) > 0 && cats[0] != "" {
		run(signalCategory, func() []Candidate { return e.categoryAffinity(ctx, req.TenantID, cats[0]) })
	}
	wg.Wait()

	var merged []Candidate
	for signal := range slots {
		metrics.RecordSignalCandidates(signalNames[signal], len(slots[signal]))
		merged = append(merged, slots[signal]...)
	}
	merged = Dedupe(merged)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	e.rerankMu.RLock()
	rerankers := e.rerankers
	e.rerankMu.RUnlock()
	for _, rr := range rerankers {
		merged = rr.Rerank(ctx, merged, req)
	}

	if len(merged) > topK {
		merged = merged[:topK]
	}
	if merged == nil {
		merged = []Candidate{}
	}

	metrics.RecordRecommendation("personalized", time.Since(start), len(merged))
	e.logger.Debug().
		Str("tenant", req.TenantID).
		Str("user_id", req.UserID).
		Int("results", len(merged)).
		Dur("duration", time.Since(start)).
		Msg("Personalized recommendations")
	return merged
}

func (e *Engine) twoTower(ctx context.Context, tenantID, summary string) []Candidate {
	embedCtx, cancel := context.WithTimeout(ctx, e.config.EmbedTimeout)
	defer cancel()

	vector, err := e.embedder.Embed(embedCtx, summary)
	if err != nil {
		e.logger.Warn().Err(err).Str("tenant", tenantID).Msg("Skipping two-tower signal")
		return nil
	}

	results := e.index.Search(ctx, tenantID, vector, e.config.TwoTowerTopK, nil)
	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = Candidate{
			ProductID: r.ID,
			Score:     r.Score * e.config.TwoTowerBoost,
			Metadata:  r.Metadata,
			Reason:    ReasonTwoTower,
		}
	}
	return out
}

func (e *Engine) viewed(ctx context.Context, tenantID, productID string) []Candidate {
	results := e.index.FindSimilar(ctx, tenantID, productID, e.config.SignalTopK, nil)
	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = Candidate{
			ProductID:     r.ID,
			Score:         r.Score,
			Similarity:    int(math.Round(r.Score * 100)),
			Metadata:      r.Metadata,
			Reason:        ReasonViewed,
			SourceProduct: productID,
		}
	}
	return out
}

func (e *Engine) purchases(ctx context.Context, tenantID string, purchased []string) []Candidate {
	recs := e.rules.CartRecommendations(ctx, tenantID, purchased, e.config.SignalTopK)
	out := make([]Candidate, len(recs))
	for i, r := range recs {
		out[i] = Candidate{
			ProductID: r.ProductID,
			Score:     r.Score,
			Sources:   r.Sources,
			Reason:    ReasonPurchases,
		}
	}
	e.enrich(ctx, tenantID, out)
	return out
}

func (e *Engine) categoryAffinity(ctx context.Context, tenantID, category string) []Candidate {
	results := e.index.QueryByFilter(ctx, tenantID, e.config.SignalTopK, vectorindex.Filter{"category": category})
	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = Candidate{
			ProductID: r.ID,
			Score:     r.Score * e.config.CategoryAffinityWeight,
			Metadata:  r.Metadata,
			Reason:    ReasonCategoryAffinity,
		}
	}
	return out
}

// enrich fills missing metadata from the catalog index so rerankers can see
// prices and categories of rule-based candidates.
func (e *Engine) enrich(ctx context.Context, tenantID string, candidates []Candidate) {
	for i := range candidates {
		if candidates[i].Metadata != nil {
			continue
		}
		if rec, ok := e.index.Get(ctx, tenantID, candidates[i].ProductID); ok {
			candidates[i].Metadata = rec.Metadata
		}
	}
}

// Dedupe collapses candidates by product id, keeping the highest score. On
// equal scores the first occurrence wins. Output follows first-occurrence order.
func Dedupe(candidates []Candidate) []Candidate {
	pos := make(map[string]int, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := pos[c.ProductID]; ok {
			if c.Score > out[i].Score {
				out[i] = c
			}
			continue
		}
		pos[c.ProductID] = len(out)
		out = append(out, c)
	}
	return out
}

// Voice answers a spoken request. Unknown types are treated as similar.
func (e *Engine) Voice(ctx context.Context, req *VoiceRequest) *VoiceResponse {
	start := time.Now()
	lang := resolveLanguage(req.Language, req.Profile.Language, e.config.DefaultLanguage)
	topK := e.config.VoiceTopK

	kind := req.Type
	var candidates []Candidate
	switch kind {
	case VoiceBoughtTogether:
		switch {
		case len(req.ProductIDs) > 0:
			candidates = e.CartRecommendations(ctx, req.TenantID, req.ProductIDs, topK)
		case req.ProductID != "":
			candidates = e.FrequentlyBoughtTogether(ctx, req.TenantID, req.ProductID, topK)
		}
	case VoicePersonalized:
		if req.UserID != "" {
			candidates = e.Personalized(ctx, &PersonalizedRequest{
				TenantID:          req.TenantID,
				UserID:            req.UserID,
				Profile:           req.Profile,
				RecentlyViewed:    req.RecentlyViewed,
				RecentlyPurchased: req.RecentlyPurchased,
				TopK:              topK,
			})
		}
	default:
		kind = VoiceSimilar
		if req.ProductID != "" {
			candidates = e.SimilarProducts(ctx, req.TenantID, req.ProductID, topK, nil)
		}
	}

	metrics.RecordRecommendation("voice", time.Since(start), len(candidates))
	return FormatVoice(candidates, kind, lang)
}

// TenantStats describes the catalog and rules held for a tenant.
type TenantStats struct {
	Index vectorindex.Stats `json:"index"`
	Rules *rules.Stats      `json:"rules,omitempty"`

	RuleProducts int       `json:"rule_products"`
	RulesUpdated time.Time `json:"rules_updated,omitempty"`
}

// Stats reports index and rule statistics for a tenant.
func (e *Engine) Stats(ctx context.Context, tenantID string) TenantStats {
	st := TenantStats{Index: e.index.Stats(ctx, tenantID)}
	if e.rules != nil {
		if rs, ok := e.rules.RuleSet(ctx, tenantID); ok {
			stats := rs.Stats
			st.Rules = &stats
			st.RuleProducts = rs.Products()
			st.RulesUpdated = rs.LastUpdated
		}
	}
	return st
}
