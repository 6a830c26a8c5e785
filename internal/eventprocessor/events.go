// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/validation"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// metadataTenant carries the tenant id in message metadata.
const metadataTenant = "tenant_id"

// Catalog event actions.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
	ActionClear  = "clear"
)

// CatalogEvent changes the indexed catalog of one tenant.
//
//   - upsert: Products are indexed (embedded first when they carry no vector)
//   - delete: ProductIDs are removed
//   - clear: the whole tenant index and its snapshot are dropped
type CatalogEvent struct {
	SchemaVersion int                 `json:"schema_version,omitempty"`
	EventID       string              `json:"event_id"`
	TenantID      string              `json:"tenant_id"`
	Action        string              `json:"action"`
	Products      []recommend.Product `json:"products,omitempty"`
	ProductIDs    []string            `json:"product_ids,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NewCatalogEvent returns an event with a fresh id and timestamp.
func NewCatalogEvent(tenantID, action string) *CatalogEvent {
	return &CatalogEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		TenantID:      tenantID,
		Action:        action,
		OccurredAt:    time.Now().UTC(),
	}
}

// Validate checks required fields for the action.
func (e *CatalogEvent) Validate() error {
	if err := validateEnvelope(e.EventID, e.TenantID); err != nil {
		return err
	}
	switch e.Action {
	case ActionUpsert:
		if len(e.Products) == 0 {
			return fmt.Errorf("%w: upsert without products", ErrInvalidEvent)
		}
	case ActionDelete:
		if len(e.ProductIDs) == 0 {
			return fmt.Errorf("%w: delete without product_ids", ErrInvalidEvent)
		}
	case ActionClear:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEvent, e.Action)
	}
	return nil
}

// OrderEvent records completed orders of one tenant.
type OrderEvent struct {
	SchemaVersion int           `json:"schema_version,omitempty"`
	EventID       string        `json:"event_id"`
	TenantID      string        `json:"tenant_id"`
	Orders        []rules.Order `json:"orders"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// NewOrderEvent returns an event with a fresh id and timestamp.
func NewOrderEvent(tenantID string, orders []rules.Order) *OrderEvent {
	return &OrderEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		TenantID:      tenantID,
		Orders:        orders,
		OccurredAt:    time.Now().UTC(),
	}
}

// Validate checks required fields.
func (e *OrderEvent) Validate() error {
	if err := validateEnvelope(e.EventID, e.TenantID); err != nil {
		return err
	}
	if len(e.Orders) == 0 {
		return fmt.Errorf("%w: no orders", ErrInvalidEvent)
	}
	return nil
}

func validateEnvelope(eventID, tenantID string) error {
	if eventID == "" {
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	}
	if !validation.ValidTenantID(tenantID) {
		return fmt.Errorf("%w: invalid tenant_id %q", ErrInvalidEvent, tenantID)
	}
	return nil
}

func marshalEvent(event any) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DecodeCatalogEvent parses and validates a catalog event payload.
func DecodeCatalogEvent(data []byte) (*CatalogEvent, error) {
	var event CatalogEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

// DecodeOrderEvent parses and validates an order event payload.
func DecodeOrderEvent(data []byte) (*OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
