// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventprocessor

import (
	"errors"
	"testing"

	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

func TestCatalogEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CatalogEvent)
		wantErr bool
	}{
		{"valid upsert", func(*CatalogEvent) {}, false},
		{"missing event id", func(e *CatalogEvent) { e.EventID = "" }, true},
		{"bad tenant", func(e *CatalogEvent) { e.TenantID = "shop a" }, true},
		{"upsert without products", func(e *CatalogEvent) { e.Products = nil }, true},
		{"unknown action", func(e *CatalogEvent) { e.Action = "merge" }, true},
		{"delete with ids", func(e *CatalogEvent) { e.Action = ActionDelete; e.ProductIDs = []string{"p1"} }, false},
		{"delete without ids", func(e *CatalogEvent) { e.Action = ActionDelete }, true},
		{"clear", func(e *CatalogEvent) { e.Action = ActionClear; e.Products = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewCatalogEvent("shop-a", ActionUpsert)
			event.Products = []recommend.Product{{ID: "p1"}}
			tt.mutate(event)

			err := event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("Validate() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestOrderEvent_Validate(t *testing.T) {
	event := NewOrderEvent("shop-a", []rules.Order{{ID: "o1"}})
	if err := event.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if event.SchemaVersion != SchemaVersion || event.EventID == "" || event.OccurredAt.IsZero() {
		t.Errorf("NewOrderEvent() = %+v, want envelope fields set", event)
	}

	event.Orders = nil
	if err := event.Validate(); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Validate() error = %v, want ErrInvalidEvent", err)
	}
}

func TestDecodeEvents(t *testing.T) {
	event := NewCatalogEvent("shop-a", ActionDelete)
	event.ProductIDs = []string{"p1", "p2"}
	data, err := marshalEvent(event)
	if err != nil {
		t.Fatalf("marshalEvent() error = %v", err)
	}

	decoded, err := DecodeCatalogEvent(data)
	if err != nil {
		t.Fatalf("DecodeCatalogEvent() error = %v", err)
	}
	if decoded.EventID != event.EventID || len(decoded.ProductIDs) != 2 {
		t.Errorf("DecodeCatalogEvent() = %+v", decoded)
	}

	if _, err := DecodeCatalogEvent([]byte("{not json")); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("DecodeCatalogEvent(garbage) error = %v, want ErrInvalidEvent", err)
	}
	if _, err := DecodeOrderEvent([]byte(`{"event_id":"e1","tenant_id":"shop-a","orders":[]}`)); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("DecodeOrderEvent(no orders) error = %v, want ErrInvalidEvent", err)
	}
}

func TestDurableName(t *testing.T) {
	tests := []struct {
		prefix, topic, want string
	}{
		{"shelfwise", "shelfwise.catalog", "shelfwise_shelfwise_catalog"},
		{"shelfwise", "shelfwise.>", "shelfwise_shelfwise_rest"},
		{"", "shelfwise.orders", ""},
	}
	for _, tt := range tests {
		if got := durableName(tt.prefix, tt.topic); got != tt.want {
			t.Errorf("durableName(%q, %q) = %q, want %q", tt.prefix, tt.topic, got, tt.want)
		}
	}
}
