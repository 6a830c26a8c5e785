// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import "strings"

const (
	summaryCategories = 3
	summaryPurchases  = 2
)

// UserSummary renders the text embedded for two-tower retrieval. The output
// depends only on its inputs and is empty when there is nothing to describe.
func UserSummary(p *Profile, recentlyPurchased []string) string {
	var parts []string

	if tier := strings.TrimSpace(p.LTVTier); tier != "" {
		parts = append(parts, tier+" customer")
	}
	if cats := nonEmpty(p.Preferences.Categories, summaryCategories); len(cats) > 0 {
		parts = append(parts, "interested in "+strings.Join(cats, ", "))
	}
	if lang := strings.TrimSpace(p.Language); lang != "" {
		parts = append(parts, "language: "+lang)
	}
	if bought := nonEmpty(recentlyPurchased, summaryPurchases); len(bought) > 0 {
		parts = append(parts, "recently bought "+strings.Join(bought, ", "))
	}

	return strings.Join(parts, ". ")
}

func nonEmpty(values []string, limit int) []string {
	out := make([]string, 0, limit)
	for _, v := range values {
		if len(out) == limit {
			break
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
