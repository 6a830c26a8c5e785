// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package reranking implements post-processing passes for personalized
// recommendations.
//
// Rerankers run after the engine has merged and deduplicated every signal.
// They adjust scores for objectives other than relevance and return the
// candidates re-sorted by descending score:
//
//	Signals -> Merge/Dedupe -> LTV -> Diversity -> Top K
//
// # Available Rerankers
//
// LTV:
//   - Picks a boost profile from the shopper's lifetime-value tier
//   - Premium products (price above 100) get the tier's premium boost
//   - Products flagged as discounted get the tier's discount boost
//   - Unknown tiers use the bronze profile
//
// Diversity:
//   - Keeps the first candidate untouched
//   - Multiplies the score of every later candidate whose category was
//     already seen by (1 - factor)
//   - A request may override the factor; zero disables the pass
//
// # Usage
//
//	engine.RegisterReranker(reranking.NewLTV())
//	engine.RegisterReranker(reranking.NewDiversity(cfg.DiversityFactor))
//
// Or register the standard pipeline in one call:
//
//	reranking.RegisterDefaults(engine, cfg.DiversityFactor)
//
// # Thread Safety
//
// Rerankers hold no per-request state and are safe for concurrent use. They
// never modify the slice they are given.
package reranking
