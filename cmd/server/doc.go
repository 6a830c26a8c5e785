// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package main is the entry point for the Shelfwise server.

Shelfwise keeps one similarity index per tenant (shop) over its product
catalog, mines "frequently bought together" rules from order history and
serves similar, complementary, cart, personalized and voice recommendations
over a REST API.

# Application Architecture

Long-running work runs under a Suture v4 supervisor tree:

	RootSupervisor ("shelfwise")
	├── DataSupervisor ("data-layer")
	│   ├── FlushService (index snapshots, Badger value log GC)
	│   └── LearnService (scheduled rule learning, order retention)
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventBusService (NATS JetStream catalog and order events)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (chi router)

Component initialization order:

 1. Configuration: Koanf v2 (defaults, config file, environment)
 2. Logging: zerolog with JSON or console output
 3. Storage: Badger, file or in-memory snapshots and rule sets
 4. Index manager and rule miner
 5. Embedding client (optional) and recommendation engine with rerankers
 6. Order history: DuckDB (optional)
 7. Event bus: embedded or external NATS with Watermill (optional)
 8. Authentication (JWT) and authorization (Casbin)
 9. Supervisor tree and HTTP server

# Configuration

Priority: Environment variables > Config file > Defaults

	HTTP_PORT=3860
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>

	STORAGE_BACKEND=badger       # badger, file or memory
	STORAGE_PATH=/data/shelfwise/badger
	DUCKDB_PATH=/data/shelfwise/orders.duckdb   # empty disables order history

	EMBEDDING_URL=http://tei:8080                # empty disables text embedding
	INDEX_DIMENSION=768

	NATS_ENABLED=false
	NATS_EMBEDDED=true

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the
event router finishes in-flight messages, the flush service writes a final
snapshot, and then storage and the database are closed.
*/
package main
