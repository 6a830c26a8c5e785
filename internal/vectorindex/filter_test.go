// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package vectorindex

import "testing"

func TestFilterMatches(t *testing.T) {
	md := Metadata{
		"category": "phones",
		"brand":    "acme",
		"price":    float64(120),
		"stock":    7,
		"inStock":  true,
		"tags":     []any{"5g", "android"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", nil, true},
		{"scalar equality", Filter{"category": "phones"}, true},
		{"scalar mismatch", Filter{"category": "laptops"}, false},
		{"missing field", Filter{"color": "red"}, false},
		{"numeric across types", Filter{"price": 120}, true},
		{"int metadata float filter", Filter{"stock": 7.0}, true},
		{"string is not a number", Filter{"price": "120"}, false},
		{"bool equality", Filter{"inStock": true}, true},
		{"membership", Filter{"brand": []any{"globex", "acme"}}, true},
		{"membership string slice", Filter{"brand": []string{"globex"}}, false},
		{"membership numeric", Filter{"price": []int{100, 120}}, true},
		{"gte", Filter{"price": map[string]any{"$gte": 120}}, true},
		{"gt boundary", Filter{"price": map[string]any{"$gt": 120}}, false},
		{"lte", Filter{"price": map[string]any{"$lte": 120.0}}, true},
		{"lt boundary", Filter{"price": map[string]any{"$lt": 120}}, false},
		{"range", Filter{"price": map[string]any{"$gte": 100, "$lt": 200}}, true},
		{"range miss", Filter{"price": map[string]any{"$gte": 150, "$lt": 200}}, false},
		{"range on missing field", Filter{"weight": map[string]any{"$gte": 1}}, false},
		{"range on non-numeric field", Filter{"brand": map[string]any{"$gt": 1}}, false},
		{"string range", Filter{"brand": map[string]any{"$gte": "a", "$lt": "b"}}, true},
		{"ne", Filter{"brand": map[string]any{"$ne": "globex"}}, true},
		{"ne equal", Filter{"brand": map[string]any{"$ne": "acme"}}, false},
		{"ne missing field", Filter{"color": map[string]any{"$ne": "red"}}, true},
		{"unknown operator ignored", Filter{"price": map[string]any{"$regex": "^1"}}, true},
		{"nested Filter type", Filter{"price": Filter{"$gt": 100}}, true},
		{"nil requires absence", Filter{"color": nil}, true},
		{"nil present field", Filter{"brand": nil}, false},
		{"all keys anded", Filter{"category": "phones", "brand": "globex"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(md); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestMetadataNumber(t *testing.T) {
	md := Metadata{"a": 12, "b": "99.5", "c": "n/a", "d": float32(1.5)}

	tests := []struct {
		key    string
		want   float64
		wantOK bool
	}{
		{"a", 12, true},
		{"b", 99.5, true},
		{"c", 0, false},
		{"d", 1.5, true},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := md.Number(tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Number(%q) = %v, %v; want %v, %v", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
