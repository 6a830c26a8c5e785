// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package recommend orchestrates product recommendations for a tenant's catalog.
//
// # Architecture
//
// The Engine composes three collaborators supplied at construction:
//
//   - CatalogIndex: vector similarity and metadata queries (vectorindex.Manager)
//   - RuleSource: "frequently bought together" association rules (rules.Miner)
//   - Embedder: text embeddings for the user summary (embedding.Client)
//
// Personalized requests gather four signals concurrently and merge them in a
// fixed order:
//
//   - two_tower_match: the user summary embedded and searched, scores x1.2
//   - based_on_viewed: products similar to the last viewed product
//   - based_on_purchases: association rules of recently purchased products
//   - category_affinity: products in the preferred category, scores x0.5
//
// Duplicates keep their highest score. Registered rerankers (customer value
// tier, category diversity) then reorder the list before it is truncated.
//
// A signal that fails, such as an unreachable embedding provider, is skipped;
// the remaining signals still produce a response.
//
// # Voice
//
// Voice formats a result list for spoken assistants: an introductory
// sentence in the caller's language, numbered recommendations and a carousel
// directive for the widget. An empty list becomes an apology sentence.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), manager, miner, embedder, logger)
//	engine.RegisterReranker(reranking.NewLTV())
//	engine.RegisterReranker(reranking.NewDiversity(0.3))
//	recs := engine.Personalized(ctx, recommend.PersonalizedRequest{TenantID: "shop", UserID: "u1"})
package recommend
