// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package rules mines "frequently bought together" association rules from order
history.

Learning counts how often each product appears and how often each pair of
distinct products shares an order. Pairs whose categories complement each
other (a phone and a phone case, a laptop and a mouse) count 1.5 instead of 1.
A directed rule A→B is kept when the pair's support reaches MinSupport and
its confidence P(B|A) reaches MinConfidence:

	support(A,B)    = co(A,B) / orders
	confidence(A→B) = min(1, co(A,B) / count(A))

Each product keeps at most MaxRulesPerProduct rules, ranked by confidence
with a bonus for high-confidence rules. A learning run replaces the tenant's
rule set wholesale, with an empty set when no completed orders remain.

Fewer than ten orders is not enough signal: Learn reports InsufficientSignal
and leaves the existing rules untouched.
*/
package rules
