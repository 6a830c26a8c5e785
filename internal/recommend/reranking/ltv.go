// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package reranking

import (
	"context"
	"sort"
	"strings"

	"github.com/tomtom215/shelfwise/internal/recommend"
)

// premiumPrice is the price above which a product counts as premium.
const premiumPrice = 100.0

// Tier names.
const (
	TierDiamond = "diamond"
	TierGold    = "gold"
	TierSilver  = "silver"
	TierBronze  = "bronze"
)

// tierProfile holds the score adjustments of one LTV tier.
type tierProfile struct {
	premium  float64
	discount float64
}

var tierProfiles = map[string]tierProfile{
	TierDiamond: {premium: 0.2, discount: -0.1},
	TierGold:    {premium: 0.1, discount: 0},
	TierSilver:  {premium: 0, discount: 0.1},
	TierBronze:  {premium: -0.1, discount: 0.2},
}

// LTV biases candidates toward the price range of the shopper's value tier.
type LTV struct{}

// NewLTV creates an LTV reranker.
func NewLTV() *LTV {
	return &LTV{}
}

// Name returns the reranker identifier.
func (l *LTV) Name() string {
	return "ltv"
}

// Rerank applies the tier's premium boost to products priced above 100 and
// its discount boost to other products flagged as discounted.
func (l *LTV) Rerank(_ context.Context, candidates []recommend.Candidate, req *recommend.PersonalizedRequest) []recommend.Candidate {
	out := make([]recommend.Candidate, len(candidates))
	copy(out, candidates)
	if len(out) == 0 {
		return out
	}

	tier := ""
	if req != nil {
		tier = req.Profile.LTVTier
	}
	profile := profileFor(tier)

	for i := range out {
		price, _ := out[i].Metadata.Number("price")
		switch {
		case price > premiumPrice:
			out[i].Score += profile.premium
		case out[i].Metadata["discounted"] == true:
			out[i].Score += profile.discount
		}
	}

	sortByScore(out)
	return out
}

func profileFor(tier string) tierProfile {
	if p, ok := tierProfiles[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return p
	}
	return tierProfiles[TierBronze]
}

// sortByScore orders candidates by descending score, keeping the input order
// of ties.
func sortByScore(candidates []recommend.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

var _ recommend.Reranker = (*LTV)(nil)
