// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

const maxDescriptionRunes = 500

// Product is a catalog entry as supplied by a storefront.
// Price fields accept numbers or numeric strings.
type Product struct {
	ID                string    `json:"id,omitempty" validate:"max=256"`
	SKU               string    `json:"sku,omitempty" validate:"max=256"`
	Title             string    `json:"title,omitempty"`
	Description       string    `json:"description,omitempty"`
	Category          string    `json:"category,omitempty"`
	Subcategory       string    `json:"subcategory,omitempty"`
	Brand             string    `json:"brand,omitempty"`
	Price             any       `json:"price,omitempty"`
	CompareAtPrice    any       `json:"compare_at_price,omitempty"`
	InventoryQuantity *int      `json:"inventory_quantity,omitempty"`
	Available         *bool     `json:"available,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	Vector            []float32 `json:"vector,omitempty"`
}

// Key returns the product id, falling back to the SKU.
func (p *Product) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.SKU
}

// InStock reports availability: positive inventory, or not explicitly unavailable.
func (p *Product) InStock() bool {
	if p.InventoryQuantity != nil && *p.InventoryQuantity > 0 {
		return true
	}
	return p.Available == nil || *p.Available
}

// Metadata builds the index metadata stored alongside the product vector.
func (p *Product) Metadata() vectorindex.Metadata {
	price, ok := vectorindex.ToNumber(p.Price)
	if !ok {
		price = 0
	}
	md := vectorindex.Metadata{
		"category":    p.Category,
		"subcategory": p.Subcategory,
		"price":       price,
		"brand":       p.Brand,
		"inStock":     p.InStock(),
	}
	if len(p.Tags) > 0 {
		md["tags"] = p.Tags
	}
	if compare, ok := vectorindex.ToNumber(p.CompareAtPrice); ok && compare > price && price > 0 {
		md["discounted"] = true
	}
	return md
}

// Text renders the product as the text embedded for its vector.
func (p *Product) Text() string {
	description := strings.TrimSpace(p.Description)
	if utf8.RuneCountInString(description) > maxDescriptionRunes {
		description = string([]rune(description)[:maxDescriptionRunes])
	}

	var parts []string
	for _, s := range []string{p.Title, p.Category, p.Subcategory, p.Brand, strings.Join(p.Tags, ", "), description} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ". ")
}

// CatalogResult summarises a catalog ingestion.
type CatalogResult struct {
	Received int `json:"received"`
	Embedded int `json:"embedded"`
	Indexed  int `json:"indexed"`
	Skipped  int `json:"skipped"`
}

// InitializeCatalog indexes products for a tenant. Products carrying a vector
// are stored as is; the others are embedded from their text when an embedder
// is configured. Products that cannot be embedded are skipped.
func (e *Engine) InitializeCatalog(ctx context.Context, tenantID string, products []Product) (CatalogResult, error) {
	res := CatalogResult{Received: len(products)}
	items := make([]vectorindex.Item, 0, len(products))

	for i := range products {
		p := &products[i]
		key := p.Key()
		if key == "" {
			res.Skipped++
			continue
		}

		vector := p.Vector
		if len(vector) == 0 {
			if e.embedder == nil {
				res.Skipped++
				continue
			}
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("initialize catalog for %s: %w", tenantID, err)
			}
			v, err := e.embedder.Embed(ctx, p.Text())
			if err != nil {
				e.logger.Warn().Err(err).Str("tenant", tenantID).Str("product_id", key).Msg("Failed to embed product")
				res.Skipped++
				continue
			}
			vector = v
			res.Embedded++
		}

		items = append(items, vectorindex.Item{ID: key, Vector: vector, Metadata: p.Metadata()})
	}

	res.Indexed = e.index.AddBatch(ctx, tenantID, items)
	res.Skipped += len(items) - res.Indexed

	e.logger.Info().
		Str("tenant", tenantID).
		Int("received", res.Received).
		Int("embedded", res.Embedded).
		Int("indexed", res.Indexed).
		Msg("Initialized catalog")
	return res, nil
}
