// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package eventprocessor ingests catalog and order events over NATS JetStream.
//
// Upstream shops publish CatalogEvent and OrderEvent messages instead of
// calling the HTTP API. A Watermill router consumes them and applies each
// event to the index (through the recommendation engine) or to the order
// history store that feeds rule learning.
//
// # Architecture
//
//	shop ──► NATS JetStream ──► Watermill Router ──► Handlers
//	         stream SHELFWISE     Recoverer            catalog ──► Engine.InitializeCatalog / Manager.Remove / Clear
//	         subjects shelfwise.>  Retry                orders  ──► database.RecordOrders
//	                               PoisonQueue ──► shelfwise.poison
//
// The NATS server can run embedded in the process (EmbeddedServer) or be
// external. StreamInitializer creates the stream before the router binds to
// it, so topics can contain dots.
//
// # Delivery
//
// Messages are acked only after their handler returns nil. Failed handlers
// are retried with exponential backoff and then moved to the poison topic.
// Catalog upserts and order records are idempotent, so redelivery is safe.
package eventprocessor
