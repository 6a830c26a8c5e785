// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"time"

	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// AddItemsRequest inserts precomputed vectors.
type AddItemsRequest struct {
	Items []vectorindex.Item `json:"items" validate:"required,min=1,dive"`
}

// IngestProductsRequest indexes storefront products, embedding those
// without a vector. Async queues the products on the event bus instead.
type IngestProductsRequest struct {
	Products []recommend.Product `json:"products" validate:"required,min=1,dive"`
	Async    bool                `json:"async,omitempty"`
}

// SearchRequest ranks the catalog against a query vector.
type SearchRequest struct {
	Vector []float32          `json:"vector" validate:"required,min=1"`
	TopK   int                `json:"top_k,omitempty" validate:"omitempty,min=1"`
	Filter vectorindex.Filter `json:"filter,omitempty"`
}

// QueryRequest lists records matching a metadata filter.
type QueryRequest struct {
	TopK   int                `json:"top_k,omitempty" validate:"omitempty,min=1"`
	Filter vectorindex.Filter `json:"filter,omitempty"`
}

// LearnRequest mines rules from the supplied orders, or from the stored
// order history when Orders is empty.
type LearnRequest struct {
	Orders  []rules.Order  `json:"orders,omitempty" validate:"omitempty,dive"`
	Options *rules.Options `json:"options,omitempty"`

	// Since and Limit narrow the stored history. Zero values use the learn configuration.
	Since *time.Time `json:"since,omitempty"`
	Limit int        `json:"limit,omitempty" validate:"omitempty,min=1"`
}

// RecordOrdersRequest appends orders to the stored history.
type RecordOrdersRequest struct {
	Orders []rules.Order `json:"orders" validate:"required,min=1,dive"`
	Async  bool          `json:"async,omitempty"`
}

// CartRequest asks for products to add to a cart.
type CartRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,max=100,dive,required"`
	TopK       int      `json:"top_k,omitempty" validate:"omitempty,min=1"`
}

// DeleteItemsRequest removes several products at once.
type DeleteItemsRequest struct {
	IDs   []string `json:"ids" validate:"required,min=1,dive,required"`
	Async bool     `json:"async,omitempty"`
}
