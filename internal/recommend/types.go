// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"context"

	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// Reason explains why a product was recommended.
type Reason string

const (
	ReasonSimilarProduct   Reason = "similar_product"
	ReasonBoughtTogether   Reason = "frequently_bought_together"
	ReasonViewed           Reason = "based_on_viewed"
	ReasonPurchases        Reason = "based_on_purchases"
	ReasonCategoryAffinity Reason = "category_affinity"
	ReasonTwoTower         Reason = "two_tower_match"
)

// Candidate is a recommended product. Within one response ProductID is unique.
type Candidate struct {
	ProductID string               `json:"product_id"`
	Score     float64              `json:"score"`
	Reason    Reason               `json:"reason"`
	Metadata  vectorindex.Metadata `json:"metadata,omitempty"`

	// SourceProduct is the viewed product a based_on_viewed candidate came from.
	SourceProduct string `json:"source_product,omitempty"`

	// Similarity is the score as a rounded percentage, for similar products.
	Similarity int `json:"similarity,omitempty"`

	// CoOccurrences is the weighted pair count, for bought-together products.
	CoOccurrences float64 `json:"co_occurrences,omitempty"`

	// Sources is the number of cart items pointing at a based_on_purchases candidate.
	Sources int `json:"sources,omitempty"`
}

// Category returns the candidate's category, or "" when it has none.
func (c *Candidate) Category() string {
	s, _ := c.Metadata.Text("category")
	return s
}

// Profile is the caller-supplied description of a shopper.
type Profile struct {
	LTVTier     string      `json:"ltv_tier,omitempty"`
	Preferences Preferences `json:"preferences"`
	Language    string      `json:"language,omitempty"`
}

// Preferences lists categories in order of preference.
type Preferences struct {
	Categories []string `json:"categories,omitempty"`
}

// PersonalizedRequest asks for recommendations tailored to one shopper.
type PersonalizedRequest struct {
	TenantID          string   `json:"-"`
	UserID            string   `json:"user_id" validate:"required,max=256"`
	Profile           Profile  `json:"profile"`
	RecentlyViewed    []string `json:"recently_viewed,omitempty" validate:"max=100"`
	RecentlyPurchased []string `json:"recently_purchased,omitempty" validate:"max=100"`
	TopK              int      `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`

	// DiversityFactor overrides the configured factor. Zero disables diversity.
	DiversityFactor *float64 `json:"diversity_factor,omitempty" validate:"omitempty,min=0,max=1"`
}

// Reranker reorders merged candidates for a secondary objective.
// Implementations return a new slice and leave the input untouched.
type Reranker interface {
	// Name returns the reranker identifier (e.g., "ltv", "diversity").
	Name() string

	// Rerank rescores candidates and returns them sorted by descending score.
	Rerank(ctx context.Context, candidates []Candidate, req *PersonalizedRequest) []Candidate
}

// CatalogIndex is the similarity index the engine queries.
type CatalogIndex interface {
	Search(ctx context.Context, tenantID string, query []float32, topK int, filter vectorindex.Filter) []vectorindex.Result
	QueryByFilter(ctx context.Context, tenantID string, topK int, filter vectorindex.Filter) []vectorindex.Result
	FindSimilar(ctx context.Context, tenantID, sourceID string, topK int, filter vectorindex.Filter) []vectorindex.Result
	Get(ctx context.Context, tenantID, id string) (vectorindex.Record, bool)
	AddBatch(ctx context.Context, tenantID string, items []vectorindex.Item) int
	Stats(ctx context.Context, tenantID string) vectorindex.Stats
}

// RuleSource serves association rules.
type RuleSource interface {
	Learn(ctx context.Context, tenantID string, orders []rules.Order, opts rules.Options) (rules.LearnResult, error)
	Associations(ctx context.Context, tenantID, productID string, topK int) []rules.Rule
	CartRecommendations(ctx context.Context, tenantID string, cart []string, topK int) []rules.CartCandidate
	RuleSet(ctx context.Context, tenantID string) (*rules.RuleSet, bool)
}

// Embedder turns text into a vector of the index dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var (
	_ CatalogIndex = (*vectorindex.Manager)(nil)
	_ RuleSource   = (*rules.Miner)(nil)
)
