// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package reranking

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

func categorized(id string, score float64, category string) recommend.Candidate {
	c := recommend.Candidate{ProductID: id, Score: score}
	if category != "" {
		c.Metadata = vectorindex.Metadata{"category": category}
	}
	return c
}

func factor(v float64) *float64 { return &v }

func TestDiversity_Rerank(t *testing.T) {
	in := []recommend.Candidate{
		categorized("a", 1.0, "shoes"),
		categorized("b", 0.9, "shoes"),
		categorized("c", 0.8, "bags"),
	}

	got := NewDiversity(0.3).Rerank(context.Background(), in, &recommend.PersonalizedRequest{DiversityFactor: factor(0.5)})

	wantOrder := []string{"a", "c", "b"}
	for i, id := range wantOrder {
		if got[i].ProductID != id {
			t.Fatalf("order = %v, want %v", []string{got[0].ProductID, got[1].ProductID, got[2].ProductID}, wantOrder)
		}
	}
	scores := scoresByID(got)
	if !approxEqual(scores["b"], 0.45) {
		t.Errorf("score[b] = %f, want 0.45", scores["b"])
	}
	if scores["c"] != 0.8 {
		t.Errorf("score[c] = %f, want 0.8", scores["c"])
	}
	if scores["a"] != 1.0 {
		t.Errorf("score[a] = %f, want 1.0", scores["a"])
	}
	if in[1].Score != 0.9 {
		t.Error("Rerank() modified its input")
	}
}

func TestDiversity_NoOp(t *testing.T) {
	in := []recommend.Candidate{
		categorized("a", 1.0, "shoes"),
		categorized("b", 0.9, "shoes"),
	}

	tests := []struct {
		name  string
		d     *Diversity
		req   *recommend.PersonalizedRequest
		input []recommend.Candidate
	}{
		{"request factor zero", NewDiversity(0.3), &recommend.PersonalizedRequest{DiversityFactor: factor(0)}, in},
		{"default factor zero", NewDiversity(0), &recommend.PersonalizedRequest{}, in},
		{"single candidate", NewDiversity(0.5), nil, in[:1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.d.Rerank(context.Background(), tt.input, tt.req)
			if len(got) != len(tt.input) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.input))
			}
			for i := range got {
				if got[i].Score != tt.input[i].Score {
					t.Errorf("score[%d] = %f, want %f", i, got[i].Score, tt.input[i].Score)
				}
			}
		})
	}
}

func TestDiversity_DefaultFactor(t *testing.T) {
	in := []recommend.Candidate{
		categorized("a", 1.0, "shoes"),
		categorized("b", 0.9, "shoes"),
	}
	got := NewDiversity(0.3).Rerank(context.Background(), in, &recommend.PersonalizedRequest{})
	if !approxEqual(got[1].Score, 0.63) {
		t.Errorf("score = %f, want 0.63", got[1].Score)
	}
}

func TestDiversity_MissingCategory(t *testing.T) {
	in := []recommend.Candidate{
		categorized("a", 1.0, ""),
		categorized("b", 0.9, ""),
		categorized("c", 0.8, "hats"),
	}
	got := NewDiversity(0.5).Rerank(context.Background(), in, nil)
	if scores := scoresByID(got); !approxEqual(scores["b"], 0.45) {
		t.Errorf("uncategorized repeat score = %f, want 0.45", scores["b"])
	}
}

func TestNewDiversity_Clamps(t *testing.T) {
	if d := NewDiversity(-1); d.factor != 0 {
		t.Errorf("factor = %f, want 0", d.factor)
	}
	if d := NewDiversity(2); d.factor != 1 {
		t.Errorf("factor = %f, want 1", d.factor)
	}
}

func TestRegisterDefaults(t *testing.T) {
	ctx := context.Background()
	manager := vectorindex.NewManager(vectorindex.ManagerConfig{Dimension: 2}, nil, zerolog.Nop())
	manager.AddBatch(ctx, "t1", []vectorindex.Item{
		{ID: "src", Vector: []float32{1, 0}, Metadata: vectorindex.Metadata{"category": "shoes", "price": 50.0}},
		{ID: "shoe", Vector: []float32{0.99, 0.01}, Metadata: vectorindex.Metadata{"category": "shoes", "price": 60.0}},
		{ID: "shoe-lux", Vector: []float32{0.98, 0.02}, Metadata: vectorindex.Metadata{"category": "shoes", "price": 300.0}},
		{ID: "bag", Vector: []float32{0.7, 0.3}, Metadata: vectorindex.Metadata{"category": "bags", "price": 40.0}},
	})

	engine, err := recommend.NewEngine(nil, manager, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	RegisterDefaults(engine, 0.5)

	got := engine.Personalized(ctx, &recommend.PersonalizedRequest{
		TenantID:       "t1",
		UserID:         "u1",
		Profile:        recommend.Profile{LTVTier: TierDiamond},
		RecentlyViewed: []string{"src"},
	})
	if len(got) != 3 {
		t.Fatalf("Personalized() returned %d candidates, want 3", len(got))
	}
	if got[0].ProductID != "shoe-lux" {
		t.Errorf("first = %s, want shoe-lux after premium boost", got[0].ProductID)
	}
	if got[1].ProductID != "bag" {
		t.Errorf("second = %s, want bag after diversity penalty", got[1].ProductID)
	}
}
