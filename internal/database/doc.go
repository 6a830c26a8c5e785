// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package database stores tenant order history in DuckDB.

Orders arrive from storefront webhooks and the event stream and are kept
so that association rules can be re-learned periodically without asking
the storefront for its full history again.

# Schema

	orders      (tenant_id, order_id, status, created_at, updated_at)
	order_items (tenant_id, order_id, position, product_id, sku, category, quantity)

Orders are upserted by (tenant_id, order_id); re-recording an order replaces
its status and its items. Status filtering is not applied here: the rule
miner decides which statuses to ignore.

# Usage

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
	    return err
	}
	defer db.Close()

	n, err := db.RecordOrders(ctx, tenantID, orders)
	history, err := db.LoadOrders(ctx, tenantID, since, 0)

# Thread Safety

DB is safe for concurrent use. Writes for one call run in a single
transaction.
*/
package database
