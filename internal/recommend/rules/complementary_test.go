// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package rules

import "testing"

func TestIsComplementary(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"phone", "protection", true},
		{"protection", "phone", true},
		{"Smartphones", "Phone Cases", true},
		{"laptop", "mouse", true},
		{"bag", "laptop", true},
		{"beauty", "skincare", true},
		{"Camera", "Lenses", true},
		{"food", "furniture", false},
		{"phone", "phone", false},
		{"", "protection", false},
		{"shoes", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := IsComplementary(tt.a, tt.b); got != tt.want {
				t.Errorf("IsComplementary(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestOrderExcluded(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"cancelled", true},
		{"Canceled", true},
		{"VOIDED", true},
		{"refunded", true},
		{"returned", true},
		{"completed", false},
		{"", false},
		{"partially_refunded", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := (Order{Status: tt.status}).Excluded(); got != tt.want {
				t.Errorf("Excluded(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
