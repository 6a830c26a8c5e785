// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package reranking

import (
	"context"

	"github.com/tomtom215/shelfwise/internal/recommend"
)

// Diversity penalizes repeated categories in a single pass.
//
// The first candidate is kept as is. Every later candidate whose category
// was already seen has its score multiplied by (1 - factor); candidates
// without a category share the empty category.
type Diversity struct {
	factor float64
}

// NewDiversity creates a diversity reranker with the factor used when a
// request does not set one. The factor is clamped to [0, 1].
func NewDiversity(factor float64) *Diversity {
	return &Diversity{factor: clamp01(factor)}
}

// Name returns the reranker identifier.
func (d *Diversity) Name() string {
	return "diversity"
}

// Rerank applies the category penalty and re-sorts by score.
func (d *Diversity) Rerank(_ context.Context, candidates []recommend.Candidate, req *recommend.PersonalizedRequest) []recommend.Candidate {
	out := make([]recommend.Candidate, len(candidates))
	copy(out, candidates)

	factor := d.factor
	if req != nil && req.DiversityFactor != nil {
		factor = clamp01(*req.DiversityFactor)
	}
	if factor == 0 || len(out) < 2 {
		return out
	}

	seen := map[string]struct{}{out[0].Category(): {}}
	for i := 1; i < len(out); i++ {
		cat := out[i].Category()
		if _, ok := seen[cat]; ok {
			out[i].Score *= 1 - factor
			continue
		}
		seen[cat] = struct{}{}
	}

	sortByScore(out)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RegisterDefaults installs the LTV and diversity rerankers, in that order.
func RegisterDefaults(engine *recommend.Engine, diversityFactor float64) {
	engine.RegisterReranker(NewLTV())
	engine.RegisterReranker(NewDiversity(diversityFactor))
}

var _ recommend.Reranker = (*Diversity)(nil)
