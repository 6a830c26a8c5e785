// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestProduct_InStock(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want bool
	}{
		{"no information", Product{}, true},
		{"positive inventory", Product{InventoryQuantity: intPtr(3), Available: boolPtr(false)}, true},
		{"zero inventory, available unset", Product{InventoryQuantity: intPtr(0)}, true},
		{"explicitly unavailable", Product{Available: boolPtr(false)}, false},
		{"explicitly available", Product{Available: boolPtr(true)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.InStock(); got != tt.want {
				t.Errorf("InStock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProduct_Metadata(t *testing.T) {
	p := Product{
		ID:             "p1",
		Category:       "shoes",
		Brand:          "acme",
		Price:          "49.90",
		CompareAtPrice: 79.0,
		Tags:           []string{"summer"},
	}
	md := p.Metadata()

	if price, _ := md.Number("price"); price != 49.90 {
		t.Errorf("price = %v, want 49.90", md["price"])
	}
	if md["discounted"] != true {
		t.Errorf("discounted = %v, want true", md["discounted"])
	}
	if md["inStock"] != true {
		t.Errorf("inStock = %v, want true", md["inStock"])
	}
	if cat, _ := md.Text("category"); cat != "shoes" {
		t.Errorf("category = %q, want shoes", cat)
	}

	t.Run("no discount when compare price is lower", func(t *testing.T) {
		md := (&Product{Price: 50.0, CompareAtPrice: 40.0}).Metadata()
		if _, ok := md["discounted"]; ok {
			t.Error("discounted set without a higher compare-at price")
		}
	})

	t.Run("unparseable price", func(t *testing.T) {
		md := (&Product{Price: "free"}).Metadata()
		if md["price"] != 0.0 {
			t.Errorf("price = %v, want 0", md["price"])
		}
	})
}

func TestProduct_Text(t *testing.T) {
	p := Product{
		Title:       "Runner",
		Category:    "shoes",
		Brand:       "acme",
		Tags:        []string{"sport", "summer"},
		Description: strings.Repeat("é", 600),
	}
	text := p.Text()
	if !strings.HasPrefix(text, "Runner. shoes. acme. sport, summer. ") {
		t.Errorf("Text() prefix = %q", text[:40])
	}
	if n := utf8.RuneCountInString(text); n > 600 {
		t.Errorf("Text() has %d runes, description not truncated", n)
	}
}

func TestEngine_InitializeCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds products without vectors", func(t *testing.T) {
		embedder := &fakeEmbedder{vector: []float32{0, 1, 0}}
		engine, manager, _ := setupEngine(t, embedder)

		res, err := engine.InitializeCatalog(ctx, "shop-b", []Product{
			{ID: "p1", Title: "Tote", Category: "bags"},
			{SKU: "sku-2", Vector: []float32{1, 0, 0}},
			{Title: "no id"},
		})
		if err != nil {
			t.Fatalf("InitializeCatalog() error = %v", err)
		}
		want := CatalogResult{Received: 3, Embedded: 1, Indexed: 2, Skipped: 1}
		if res != want {
			t.Errorf("InitializeCatalog() = %+v, want %+v", res, want)
		}
		if _, ok := manager.Get(ctx, "shop-b", "sku-2"); !ok {
			t.Error("product keyed by SKU not indexed")
		}
	})

	t.Run("skips products that fail to embed", func(t *testing.T) {
		embedder := &fakeEmbedder{err: errors.New("unavailable")}
		engine, _, _ := setupEngine(t, embedder)

		res, err := engine.InitializeCatalog(ctx, "shop-c", []Product{{ID: "p1", Title: "x"}})
		if err != nil {
			t.Fatalf("InitializeCatalog() error = %v", err)
		}
		if res.Indexed != 0 || res.Skipped != 1 {
			t.Errorf("InitializeCatalog() = %+v, want one skipped", res)
		}
	})

	t.Run("dimension mismatch is skipped", func(t *testing.T) {
		engine, _, _ := setupEngine(t, nil)
		res, err := engine.InitializeCatalog(ctx, "shop-d", []Product{{ID: "p1", Vector: []float32{1, 2}}})
		if err != nil {
			t.Fatalf("InitializeCatalog() error = %v", err)
		}
		if res.Indexed != 0 || res.Skipped != 1 {
			t.Errorf("InitializeCatalog() = %+v, want one skipped", res)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		manager := vectorindex.NewManager(vectorindex.ManagerConfig{Dimension: 3}, nil, zerolog.Nop())
		engine, err := NewEngine(nil, manager, nil, &fakeEmbedder{vector: []float32{1, 0, 0}}, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := engine.InitializeCatalog(cctx, "shop-e", []Product{{ID: "p1"}}); !errors.Is(err, context.Canceled) {
			t.Errorf("InitializeCatalog() error = %v, want context.Canceled", err)
		}
	})
}
