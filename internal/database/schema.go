// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package database

import (
	"context"
	"fmt"
)

// schemaQueries creates the tables and indexes. order_items has no primary
// key: DuckDB rejects deleting and re-inserting the same key inside one
// transaction, which is exactly how an order's items are replaced.
var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		tenant_id  TEXT NOT NULL,
		order_id   TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (tenant_id, order_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		tenant_id  TEXT NOT NULL,
		order_id   TEXT NOT NULL,
		position   INTEGER NOT NULL,
		product_id TEXT NOT NULL DEFAULT '',
		sku        TEXT NOT NULL DEFAULT '',
		category   TEXT NOT NULL DEFAULT '',
		quantity   INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_tenant_created ON orders(tenant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(tenant_id, order_id)`,
}

func (db *DB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	for _, query := range schemaQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}
