// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package rules

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/metrics"
)

// RuleStore persists rule sets. LoadRules returns (nil, nil) when none exist.
type RuleStore interface {
	LoadRules(ctx context.Context, tenantID string) (*RuleSet, error)
	SaveRules(ctx context.Context, tenantID string, rules *RuleSet) error
}

// Miner learns and serves association rules for many tenants.
type Miner struct {
	store  RuleStore
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	rules map[string]*RuleSet
}

// NewMiner creates a miner. A nil store keeps rules in memory only.
func NewMiner(store RuleStore, logger zerolog.Logger) *Miner {
	return &Miner{
		store:  store,
		logger: logger.With().Str("component", "rules").Logger(),
		now:    time.Now,
		rules:  make(map[string]*RuleSet),
	}
}

// pairKey is an unordered product pair with a < b.
type pairKey struct {
	a, b string
}

func newPairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// Learn rebuilds the tenant's rules from orders.
//
// Fewer than MinOrders orders leaves the current rules in place and reports
// InsufficientSignal. Otherwise the rule set is replaced, even when every order
// was cancelled, voided, refunded or returned and the new set is empty. A
// failure to persist the new rules is logged; the rules still take effect in
// memory.
func (m *Miner) Learn(ctx context.Context, tenantID string, orders []Order, opts Options) (LearnResult, error) {
	start := time.Now()
	opts = opts.withDefaults()
	log := m.logger.With().Str("tenant", tenantID).Logger()

	if len(orders) < MinOrders {
		log.Info().Int("orders", len(orders)).Err(ErrInsufficientSignal).Msg("Skipping rule learning")
		metrics.RecordRulesLearn(time.Since(start), "insufficient", 0)
		return LearnResult{InsufficientSignal: true}, nil
	}

	itemCounts := make(map[string]int)
	pairCounts := make(map[pairKey]float64)
	totalOrders := 0

	for i := range orders {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				metrics.RecordRulesLearn(time.Since(start), "error", 0)
				return LearnResult{}, fmt.Errorf("learn rules for %s: %w", tenantID, err)
			}
		}
		if orders[i].Excluded() {
			continue
		}
		totalOrders++

		items := distinctItems(orders[i].Items)
		for _, it := range items {
			itemCounts[it.Key()]++
		}
		for a := 0; a < len(items); a++ {
			for b := a + 1; b < len(items); b++ {
				weight := 1.0
				if IsComplementary(items[a].Category, items[b].Category) {
					weight = complementaryWeight
				}
				pairCounts[newPairKey(items[a].Key(), items[b].Key())] += weight
			}
		}
	}

	if totalOrders == 0 {
		log.Info().Int("orders", len(orders)).Msg("No completed orders, clearing association rules")
	}

	pairs := make(map[string][]Rule)
	rulesCount := 0
	emit := func(src, dst string, co, support float64) {
		confidence := min(1.0, co/float64(max(itemCounts[src], 1)))
		if confidence < opts.MinConfidence {
			return
		}
		pairs[src] = append(pairs[src], Rule{
			ProductID:      dst,
			Support:        support,
			Confidence:     confidence,
			CoOccurrences:  co,
			HighConfidence: confidence > HighConfidenceThreshold,
		})
		rulesCount++
	}

	for pair, co := range pairCounts {
		support := co / float64(totalOrders)
		if support < opts.MinSupport {
			continue
		}
		emit(pair.a, pair.b, co, support)
		emit(pair.b, pair.a, co, support)
	}

	for src, list := range pairs {
		sort.Slice(list, func(i, j int) bool {
			ri, rj := list[i].rank(), list[j].rank()
			if ri != rj {
				return ri > rj
			}
			if list[i].CoOccurrences != list[j].CoOccurrences {
				return list[i].CoOccurrences > list[j].CoOccurrences
			}
			return list[i].ProductID < list[j].ProductID
		})
		if len(list) > opts.MaxRulesPerProduct {
			list = list[:opts.MaxRulesPerProduct]
		}
		pairs[src] = list
	}

	rs := &RuleSet{
		Pairs:       pairs,
		LastUpdated: m.now().UTC(),
		Stats: Stats{
			TotalOrders:    totalOrders,
			UniqueProducts: len(itemCounts),
			RulesGenerated: rulesCount,
		},
	}

	m.mu.Lock()
	m.rules[tenantID] = rs
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveRules(ctx, tenantID, rs); err != nil {
			log.Error().Err(err).Msg("Failed to persist association rules")
		}
	}

	metrics.RecordRulesLearn(time.Since(start), "learned", rulesCount)
	log.Info().
		Int("rules", rulesCount).
		Int("products", len(pairs)).
		Int("orders", totalOrders).
		Dur("duration", time.Since(start)).
		Msg("Learned association rules")

	return LearnResult{Learned: rulesCount, Products: len(pairs)}, nil
}

// distinctItems drops items without an id and repeated ids, keeping the first
// occurrence so its category is the one used for boosting.
func distinctItems(items []OrderItem) []OrderItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		key := it.Key()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// RuleSet returns the tenant's current rules, loading them from the store on
// first use. The returned value must not be modified.
func (m *Miner) RuleSet(ctx context.Context, tenantID string) (*RuleSet, bool) {
	m.mu.RLock()
	rs, ok := m.rules[tenantID]
	m.mu.RUnlock()
	if ok {
		return rs, rs.Products() > 0
	}

	rs = &RuleSet{Pairs: map[string][]Rule{}}
	if m.store != nil {
		loaded, err := m.store.LoadRules(ctx, tenantID)
		switch {
		case err != nil:
			m.logger.Error().Err(err).Str("tenant", tenantID).Msg("Failed to load association rules")
		case loaded != nil:
			rs = loaded
			if rs.Pairs == nil {
				rs.Pairs = map[string][]Rule{}
			}
		}
	}

	m.mu.Lock()
	if existing, ok := m.rules[tenantID]; ok {
		rs = existing
	} else {
		m.rules[tenantID] = rs
	}
	m.mu.Unlock()

	return rs, rs.Products() > 0
}

// Associations returns up to topK rules for productID, strongest first.
func (m *Miner) Associations(ctx context.Context, tenantID, productID string, topK int) []Rule {
	if topK <= 0 {
		return []Rule{}
	}
	rs, _ := m.RuleSet(ctx, tenantID)
	list, ok := rs.Pairs[productID]
	if !ok {
		m.logger.Warn().Err(ErrUnknownProduct).
			Str("tenant", tenantID).
			Str("product_id", productID).
			Msg("No associations found")
		return []Rule{}
	}
	if len(list) > topK {
		list = list[:topK]
	}
	out := make([]Rule, len(list))
	copy(out, list)
	return out
}

// CartRecommendations merges the rules of every cart item. Products already in
// the cart are excluded; each remaining candidate scores the sum of the
// confidences pointing at it.
func (m *Miner) CartRecommendations(ctx context.Context, tenantID string, cart []string, topK int) []CartCandidate {
	if topK <= 0 || len(cart) == 0 {
		return []CartCandidate{}
	}
	rs, _ := m.RuleSet(ctx, tenantID)

	inCart := make(map[string]struct{}, len(cart))
	for _, id := range cart {
		inCart[id] = struct{}{}
	}

	byID := make(map[string]*CartCandidate)
	visited := make(map[string]struct{}, len(inCart))
	for _, id := range cart {
		if _, dup := visited[id]; dup {
			continue
		}
		visited[id] = struct{}{}
		for _, r := range rs.Pairs[id] {
			if _, skip := inCart[r.ProductID]; skip {
				continue
			}
			c, ok := byID[r.ProductID]
			if !ok {
				c = &CartCandidate{ProductID: r.ProductID}
				byID[r.ProductID] = c
			}
			c.Score += r.Confidence
			c.Sources++
		}
	}

	out := make([]CartCandidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
