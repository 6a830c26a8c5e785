// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package rules

import (
	"errors"
	"strings"
	"time"
)

const (
	// MinOrders is the smallest order history Learn will mine.
	MinOrders = 10

	// HighConfidenceThreshold marks rules strong enough to earn a ranking bonus.
	HighConfidenceThreshold = 0.6

	highConfidenceBonus = 0.5
	complementaryWeight = 1.5
)

var (
	// ErrInsufficientSignal is reported when there are too few orders to learn from.
	// Learn does not return it; it surfaces as LearnResult.InsufficientSignal.
	ErrInsufficientSignal = errors.New("insufficient order history")

	// ErrUnknownProduct is logged when rules are requested for a product with none.
	ErrUnknownProduct = errors.New("no rules for product")
)

// excludedStatuses are order states that never reflect a completed purchase.
var excludedStatuses = map[string]struct{}{
	"cancelled": {},
	"canceled":  {},
	"voided":    {},
	"refunded":  {},
	"returned":  {},
}

// Order is one purchase from the order history source.
type Order struct {
	ID        string      `json:"id"`
	Status    string      `json:"status,omitempty"`
	Items     []OrderItem `json:"items" validate:"dive"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
}

// OrderItem is a line of an order. SKU stands in when ProductID is empty.
type OrderItem struct {
	ProductID string `json:"product_id,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Category  string `json:"category,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// Key returns the identifier used for mining.
func (i OrderItem) Key() string {
	if i.ProductID != "" {
		return i.ProductID
	}
	return i.SKU
}

// Excluded reports whether the order's status removes it from mining.
func (o Order) Excluded() bool {
	_, ok := excludedStatuses[strings.ToLower(strings.TrimSpace(o.Status))]
	return ok
}

// Rule is a directed association from a source product to ProductID.
type Rule struct {
	ProductID      string  `json:"product_id"`
	Support        float64 `json:"support"`
	Confidence     float64 `json:"confidence"`
	CoOccurrences  float64 `json:"co_occurrences"`
	HighConfidence bool    `json:"high_confidence"`
}

func (r Rule) rank() float64 {
	if r.HighConfidence {
		return r.Confidence + highConfidenceBonus
	}
	return r.Confidence
}

// Stats summarises the run that produced a RuleSet.
type Stats struct {
	TotalOrders    int `json:"total_orders"`
	UniqueProducts int `json:"unique_products"`
	RulesGenerated int `json:"rules_generated"`
}

// RuleSet is a tenant's complete set of rules, keyed by source product.
// A RuleSet is never modified after it is published.
type RuleSet struct {
	Pairs       map[string][]Rule `json:"pairs"`
	LastUpdated time.Time         `json:"last_updated"`
	Stats       Stats             `json:"stats"`
}

// Products returns the number of source products with at least one rule.
func (rs *RuleSet) Products() int {
	if rs == nil {
		return 0
	}
	return len(rs.Pairs)
}

// NoThreshold disables MinSupport or MinConfidence. Any negative value does.
const NoThreshold = -1.0

// Options tunes a learning run. Zero fields take the defaults; a negative
// MinSupport or MinConfidence keeps every pair.
type Options struct {
	MinSupport         float64 `json:"min_support" koanf:"min_support"`
	MinConfidence      float64 `json:"min_confidence" koanf:"min_confidence"`
	MaxRulesPerProduct int     `json:"max_rules_per_product" koanf:"max_rules_per_product"`
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		MinSupport:         0.01,
		MinConfidence:      0.10,
		MaxRulesPerProduct: 10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	o.MinSupport = threshold(o.MinSupport, d.MinSupport)
	o.MinConfidence = threshold(o.MinConfidence, d.MinConfidence)
	if o.MaxRulesPerProduct <= 0 {
		o.MaxRulesPerProduct = d.MaxRulesPerProduct
	}
	return o
}

func threshold(v, def float64) float64 {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	}
	return v
}

// LearnResult reports the outcome of Learn.
type LearnResult struct {
	Learned            int  `json:"learned"`
	Products           int  `json:"products"`
	InsufficientSignal bool `json:"insufficient_signal,omitempty"`
}

// CartCandidate is a product suggested by one or more cart items.
type CartCandidate struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
	Sources   int     `json:"sources"`
}
