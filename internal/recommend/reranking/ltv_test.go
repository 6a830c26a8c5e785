// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package reranking

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

func priced(id string, score, price float64) recommend.Candidate {
	return recommend.Candidate{
		ProductID: id,
		Score:     score,
		Metadata:  vectorindex.Metadata{"price": price},
	}
}

func scoresByID(cs []recommend.Candidate) map[string]float64 {
	out := make(map[string]float64, len(cs))
	for _, c := range cs {
		out[c.ProductID] = c.Score
	}
	return out
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLTV_Name(t *testing.T) {
	if got := NewLTV().Name(); got != "ltv" {
		t.Errorf("Name() = %q, want %q", got, "ltv")
	}
}

func TestLTV_Rerank(t *testing.T) {
	discounted := recommend.Candidate{
		ProductID: "sale",
		Score:     0.5,
		Metadata:  vectorindex.Metadata{"price": 30.0, "discounted": true},
	}

	tests := []struct {
		name string
		tier string
		want map[string]float64
	}{
		{"diamond", "diamond", map[string]float64{"lux": 0.7, "cheap": 0.6, "sale": 0.4}},
		{"gold", "gold", map[string]float64{"lux": 0.6, "cheap": 0.6, "sale": 0.5}},
		{"silver", "silver", map[string]float64{"lux": 0.5, "cheap": 0.6, "sale": 0.6}},
		{"bronze", "bronze", map[string]float64{"lux": 0.4, "cheap": 0.6, "sale": 0.7}},
		{"unknown tier uses bronze", "platinum", map[string]float64{"lux": 0.4, "cheap": 0.6, "sale": 0.7}},
		{"missing tier uses bronze", "", map[string]float64{"lux": 0.4, "cheap": 0.6, "sale": 0.7}},
		{"tier is case insensitive", "Diamond", map[string]float64{"lux": 0.7, "cheap": 0.6, "sale": 0.4}},
		{"tier is trimmed", " Gold ", map[string]float64{"lux": 0.6, "cheap": 0.6, "sale": 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []recommend.Candidate{priced("cheap", 0.6, 50), priced("lux", 0.5, 150), discounted}
			req := &recommend.PersonalizedRequest{Profile: recommend.Profile{LTVTier: tt.tier}}

			got := NewLTV().Rerank(context.Background(), in, req)

			scores := scoresByID(got)
			for id, want := range tt.want {
				if !approxEqual(scores[id], want) {
					t.Errorf("score[%s] = %f, want %f", id, scores[id], want)
				}
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].Score < got[i].Score {
					t.Errorf("not sorted at %d: %f < %f", i, got[i-1].Score, got[i].Score)
				}
			}
			if in[1].Score != 0.5 {
				t.Error("Rerank() modified its input")
			}
		})
	}
}

func TestLTV_PriceBoundary(t *testing.T) {
	req := &recommend.PersonalizedRequest{Profile: recommend.Profile{LTVTier: TierDiamond}}
	got := NewLTV().Rerank(context.Background(), []recommend.Candidate{priced("edge", 0.5, 100)}, req)
	if got[0].Score != 0.5 {
		t.Errorf("price of exactly 100 boosted: score = %f", got[0].Score)
	}
}

func TestLTV_StringPrice(t *testing.T) {
	req := &recommend.PersonalizedRequest{Profile: recommend.Profile{LTVTier: TierGold}}
	in := []recommend.Candidate{{ProductID: "p", Score: 0.5, Metadata: vectorindex.Metadata{"price": "250"}}}
	got := NewLTV().Rerank(context.Background(), in, req)
	if !approxEqual(got[0].Score, 0.6) {
		t.Errorf("score = %f, want 0.6", got[0].Score)
	}
}

func TestLTV_Empty(t *testing.T) {
	got := NewLTV().Rerank(context.Background(), nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Rerank(nil) = %v, want empty slice", got)
	}
}
