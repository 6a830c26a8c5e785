// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package config loads and validates Shelfwise configuration.

Configuration is layered with Koanf v2:

 1. Defaults: built-in values from defaultConfig()
 2. Config file: optional YAML (CONFIG_PATH, ./config.yaml, /etc/shelfwise/config.yaml)
 3. Environment variables: explicit mapping in envTransformFunc

Later layers win. Unknown environment variables are ignored.

# Sections

  - server: HTTP listener, environment and shutdown timeout
  - api: request limits (top-k, batch size, body size)
  - logging: level, format, caller
  - index: vector dimension, per-tenant capacity, resident tenant limit
  - rules: association rule thresholds
  - learn: periodic re-learning from stored order history
  - flush: periodic snapshot flushing and storage GC
  - recommend: orchestrator weights, top-k defaults, voice language
  - embedding: text embedding provider (disabled when url is empty)
  - storage: snapshot backend (badger, file, memory)
  - database: DuckDB order history
  - nats: event ingestion (embedded or external server)
  - security: JWT authentication, CORS, rate limiting

# Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	manager := vectorindex.NewManager(cfg.Index.ManagerConfig(), store, logger)

# Environment Variables

	HTTP_PORT, HTTP_HOST, ENVIRONMENT
	LOG_LEVEL, LOG_FORMAT, LOG_CALLER
	INDEX_DIMENSION, INDEX_MAX_ELEMENTS, INDEX_MAX_TENANTS
	RULES_MIN_SUPPORT, RULES_MIN_CONFIDENCE, RULES_MAX_PER_PRODUCT
	LEARN_ENABLED, LEARN_INTERVAL, LEARN_LOOKBACK
	EMBEDDING_URL, EMBEDDING_API_KEY, EMBEDDING_DIMENSION
	STORAGE_BACKEND, STORAGE_PATH, STORAGE_DIR
	DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
	NATS_ENABLED, NATS_URL, NATS_EMBEDDED
	AUTH_MODE, JWT_SECRET, CORS_ORIGINS, RATE_LIMIT_REQUESTS

See envTransformFunc for the complete list.
*/
package config
