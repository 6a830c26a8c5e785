// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package rules

import "strings"

// complementary maps a category keyword to keywords of categories commonly
// bought alongside it. Matching is by substring, in both directions.
var complementary = map[string][]string{
	"phone":      {"case", "protection", "charger", "screen", "earphone", "headphone"},
	"laptop":     {"mouse", "bag", "keyboard", "charger", "sleeve", "dock"},
	"camera":     {"lens", "tripod", "memory", "bag"},
	"beauty":     {"skincare", "makeup", "cosmetic"},
	"console":    {"game", "controller"},
	"television": {"soundbar", "mount"},
	"coffee":     {"mug", "filter"},
	"shoes":      {"socks"},
	"dress":      {"jewelry", "bag"},
}

// IsComplementary reports whether two categories are typically bought together.
func IsComplementary(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return complements(a, b) || complements(b, a)
}

func complements(base, other string) bool {
	for key, partners := range complementary {
		if !strings.Contains(base, key) {
			continue
		}
		for _, p := range partners {
			if strings.Contains(other, p) {
				return true
			}
		}
	}
	return false
}
