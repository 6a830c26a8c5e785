// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventprocessor

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string][]recommend.Product
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: make(map[string][]recommend.Product)}
}

func (f *fakeCatalog) InitializeCatalog(_ context.Context, tenantID string, products []recommend.Product) (recommend.CatalogResult, error) {
	if f.err != nil {
		return recommend.CatalogResult{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[tenantID] = append(f.products[tenantID], products...)
	return recommend.CatalogResult{Received: len(products), Indexed: len(products)}, nil
}

func (f *fakeCatalog) count(tenantID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products[tenantID])
}

type fakeIndex struct {
	mu      sync.Mutex
	ids     map[string]bool
	cleared []string
}

func newFakeIndex(ids ...string) *fakeIndex {
	f := &fakeIndex{ids: make(map[string]bool)}
	for _, id := range ids {
		f.ids[id] = true
	}
	return f
}

func (f *fakeIndex) Remove(_ context.Context, _, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ids[id] {
		return false
	}
	delete(f.ids, id)
	return true
}

func (f *fakeIndex) Clear(_ context.Context, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, tenantID)
	return nil
}

var errSinkDown = errors.New("sink down")

type fakeOrders struct {
	mu       sync.Mutex
	orders   map[string][]rules.Order
	err      error
	recorded chan string
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string][]rules.Order), recorded: make(chan string, 16)}
}

func (f *fakeOrders) RecordOrders(_ context.Context, tenantID string, orders []rules.Order) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	f.orders[tenantID] = append(f.orders[tenantID], orders...)
	f.mu.Unlock()
	f.recorded <- tenantID
	return len(orders), nil
}
