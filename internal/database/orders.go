// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

// ErrEmptyTenant is returned when an operation is called without a tenant.
var ErrEmptyTenant = errors.New("tenant id is required")

// RecordOrders upserts orders for a tenant and returns how many were written.
// Orders without an id are skipped. When the batch repeats an id the last
// occurrence wins.
func (db *DB) RecordOrders(ctx context.Context, tenantID string, orders []rules.Order) (n int, err error) {
	if tenantID == "" {
		return 0, ErrEmptyTenant
	}
	batch := dedupeOrders(orders)
	if len(batch) == 0 {
		return 0, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "orders", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // original error is returned
		}
	}()

	now := time.Now().UTC()
	for i := range batch {
		o := &batch[i]
		createdAt := o.CreatedAt.UTC()
		if o.CreatedAt.IsZero() {
			createdAt = now
		}

		if _, err = tx.ExecContext(ctx, `
			INSERT INTO orders (tenant_id, order_id, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (tenant_id, order_id) DO UPDATE SET
				status = excluded.status,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at`,
			tenantID, o.ID, o.Status, createdAt, now); err != nil {
			return 0, fmt.Errorf("upsert order %s: %w", o.ID, err)
		}

		if _, err = tx.ExecContext(ctx,
			`DELETE FROM order_items WHERE tenant_id = ? AND order_id = ?`, tenantID, o.ID); err != nil {
			return 0, fmt.Errorf("clear items of order %s: %w", o.ID, err)
		}

		for pos, item := range o.Items {
			qty := item.Quantity
			if qty <= 0 {
				qty = 1
			}
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (tenant_id, order_id, position, product_id, sku, category, quantity)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				tenantID, o.ID, pos, item.ProductID, item.SKU, item.Category, qty); err != nil {
				return 0, fmt.Errorf("insert item %d of order %s: %w", pos, o.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit orders: %w", err)
	}

	db.logger.Debug().Str("tenant", tenantID).Int("orders", len(batch)).Msg("Orders recorded")
	return len(batch), nil
}

// LoadOrders returns a tenant's orders created at or after since, oldest
// first. A zero since loads everything. When limit is positive only the
// most recent limit orders are returned.
func (db *DB) LoadOrders(ctx context.Context, tenantID string, since time.Time, limit int) (orders []rules.Order, err error) {
	if tenantID == "" {
		return nil, ErrEmptyTenant
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "orders", time.Since(start), err) }()

	var (
		inner strings.Builder
		args  = []any{tenantID}
	)
	inner.WriteString(`SELECT order_id, status, created_at FROM orders WHERE tenant_id = ?`)
	if !since.IsZero() {
		inner.WriteString(` AND created_at >= ?`)
		args = append(args, since.UTC())
	}
	inner.WriteString(` ORDER BY created_at DESC, order_id DESC`)
	if limit > 0 {
		inner.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}
	args = append(args, tenantID)

	query := `
		SELECT o.order_id, o.status, o.created_at, i.product_id, i.sku, i.category, i.quantity
		FROM (` + inner.String() + `) o
		LEFT JOIN order_items i ON i.tenant_id = ? AND i.order_id = o.order_id
		ORDER BY o.created_at, o.order_id, i.position`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer closeQuietly(rows)

	orders = make([]rules.Order, 0)
	for rows.Next() {
		var (
			orderID, status          string
			createdAt                time.Time
			productID, sku, category sql.NullString
			quantity                 sql.NullInt64
		)
		if err = rows.Scan(&orderID, &status, &createdAt, &productID, &sku, &category, &quantity); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if len(orders) == 0 || orders[len(orders)-1].ID != orderID {
			orders = append(orders, rules.Order{
				ID:        orderID,
				Status:    status,
				CreatedAt: createdAt.UTC(),
				Items:     []rules.OrderItem{},
			})
		}
		if !productID.Valid && !sku.Valid {
			continue
		}
		last := &orders[len(orders)-1]
		last.Items = append(last.Items, rules.OrderItem{
			ProductID: productID.String,
			SKU:       sku.String,
			Category:  category.String,
			Quantity:  int(quantity.Int64),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// Tenants lists tenants with at least one stored order, sorted.
func (db *DB) Tenants(ctx context.Context) (tenants []string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "orders", time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM orders ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer closeQuietly(rows)

	tenants = make([]string, 0)
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

// OrderCount returns the number of stored orders of a tenant.
func (db *DB) OrderCount(ctx context.Context, tenantID string) (count int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("count", "orders", time.Since(start), err) }()

	if err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE tenant_id = ?`, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// PurgeBefore deletes orders (and their items) created before cutoff across
// all tenants and returns how many orders were removed.
func (db *DB) PurgeBefore(ctx context.Context, cutoff time.Time) (removed int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "orders", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // original error is returned
		}
	}()

	cutoff = cutoff.UTC()
	if _, err = tx.ExecContext(ctx, `
		DELETE FROM order_items WHERE EXISTS (
			SELECT 1 FROM orders o
			WHERE o.tenant_id = order_items.tenant_id
				AND o.order_id = order_items.order_id
				AND o.created_at < ?
		)`, cutoff); err != nil {
		return 0, fmt.Errorf("purge order items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge orders: %w", err)
	}
	if removed, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	if removed > 0 {
		db.logger.Info().Int64("orders", removed).Time("cutoff", cutoff).Msg("Old orders purged")
	}
	return removed, nil
}

// dedupeOrders drops orders without an id and keeps the last occurrence of
// each id, preserving first-seen order.
func dedupeOrders(orders []rules.Order) []rules.Order {
	index := make(map[string]int, len(orders))
	out := make([]rules.Order, 0, len(orders))
	for i := range orders {
		id := orders[i].ID
		if id == "" {
			continue
		}
		if pos, ok := index[id]; ok {
			out[pos] = orders[i]
			continue
		}
		index[id] = len(out)
		out = append(out, orders[i])
	}
	return out
}
