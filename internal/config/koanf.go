// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/shelfwise/internal/embedding"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/storage"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelfwise/config.yaml",
	"/etc/shelfwise/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	emb := embedding.DefaultConfig()
	emb.URL = "" // no provider unless configured

	return &Config{
		Server: ServerConfig{
			Port:            3860,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		API: APIConfig{
			MaxTopK:      100,
			MaxBatchSize: 5000,
			MaxBodyBytes: 32 << 20, // 32MB, catalogs are sent in bulk
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Index: IndexConfig{
			Dimension:      vectorindex.DefaultDimension,
			MaxElements:    vectorindex.DefaultMaxElements,
			MaxTenants:     vectorindex.DefaultMaxTenants,
			PersistTimeout: vectorindex.DefaultPersistTimeout,
		},
		Rules: rules.DefaultOptions(),
		Learn: LearnConfig{
			Enabled:   true,
			Interval:  6 * time.Hour,
			OnStartup: false,
			Lookback:  180 * 24 * time.Hour,
			MaxOrders: 0,
			Retention: 0,
		},
		Flush: FlushConfig{
			Interval:   5 * time.Minute,
			GCInterval: 30 * time.Minute,
		},
		Recommend: *recommend.DefaultConfig(),
		Embedding: emb,
		Storage: storage.Config{
			Backend: storage.BackendBadger,
			Badger: storage.BadgerConfig{
				Path:        "/data/shelfwise/badger",
				SyncWrites:  false,
				Compression: true,
				GCRatio:     0.5,
			},
			Dir: "/data/shelfwise/snapshots",
		},
		Database: DatabaseConfig{
			Path:      "/data/shelfwise/orders.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		NATS: NATSConfig{
			Enabled:                    false,
			URL:                        "nats://127.0.0.1:4222",
			EmbeddedServer:             true,
			StoreDir:                   "/data/shelfwise/nats",
			MaxMemory:                  256 << 20, // 256MB
			MaxStore:                   1 << 30,   // 1GB
			CatalogTopic:               "shelfwise.catalog",
			OrdersTopic:                "shelfwise.orders",
			QueueGroup:                 "shelfwise",
			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterPoisonQueueTopic:     "shelfwise.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			JWTIssuer:         "shelfwise",
			TokenTTL:          24 * time.Hour,
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower case) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// API limits
	"api_max_top_k":      "api.max_top_k",
	"api_max_batch_size": "api.max_batch_size",
	"api_max_body_bytes": "api.max_body_bytes",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Index
	"index_dimension":       "index.dimension",
	"index_max_elements":    "index.max_elements",
	"index_max_tenants":     "index.max_tenants",
	"index_persist_timeout": "index.persist_timeout",

	// Association rules
	"rules_min_support":     "rules.min_support",
	"rules_min_confidence":  "rules.min_confidence",
	"rules_max_per_product": "rules.max_rules_per_product",

	// Periodic learning
	"learn_enabled":    "learn.enabled",
	"learn_interval":   "learn.interval",
	"learn_on_startup": "learn.on_startup",
	"learn_lookback":   "learn.lookback",
	"learn_max_orders": "learn.max_orders",
	"learn_retention":  "learn.retention",

	// Flushing
	"flush_interval":    "flush.interval",
	"flush_gc_interval": "flush.gc_interval",

	// Recommendation orchestrator
	"recommend_similar_top_k":         "recommend.similar_top_k",
	"recommend_bought_together_top_k": "recommend.bought_together_top_k",
	"recommend_personalized_top_k":    "recommend.personalized_top_k",
	"recommend_signal_top_k":          "recommend.signal_top_k",
	"recommend_two_tower_top_k":       "recommend.two_tower_top_k",
	"recommend_two_tower_boost":       "recommend.two_tower_boost",
	"recommend_category_weight":       "recommend.category_affinity_weight",
	"recommend_diversity_factor":      "recommend.diversity_factor",
	"recommend_voice_top_k":           "recommend.voice_top_k",
	"recommend_default_language":      "recommend.default_language",
	"recommend_embed_timeout":         "recommend.embed_timeout",

	// Embedding provider
	"embedding_url":                 "embedding.url",
	"embedding_api_key":             "embedding.api_key",
	"embedding_dimension":           "embedding.dimension",
	"embedding_timeout":             "embedding.timeout",
	"embedding_max_retries":         "embedding.max_retries",
	"embedding_requests_per_second": "embedding.requests_per_second",
	"embedding_burst":               "embedding.burst",
	"embedding_cache_size":          "embedding.cache_size",
	"embedding_cache_ttl":           "embedding.cache_ttl",

	// Snapshot storage
	"storage_backend":     "storage.backend",
	"storage_path":        "storage.badger.path",
	"storage_sync_writes": "storage.badger.sync_writes",
	"storage_compression": "storage.badger.compression",
	"storage_gc_ratio":    "storage.badger.gc_ratio",
	"storage_dir":         "storage.dir",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// NATS
	"nats_enabled":               "nats.enabled",
	"nats_url":                   "nats.url",
	"nats_embedded":              "nats.embedded_server",
	"nats_store_dir":             "nats.store_dir",
	"nats_max_memory":            "nats.max_memory",
	"nats_max_store":             "nats.max_store",
	"nats_catalog_topic":         "nats.catalog_topic",
	"nats_orders_topic":          "nats.orders_topic",
	"nats_queue_group":           "nats.queue_group",
	"nats_router_retry_count":    "nats.router_retry_count",
	"nats_router_retry_interval": "nats.router_retry_initial_interval",
	"nats_router_poison_topic":   "nats.router_poison_queue_topic",
	"nats_router_close_timeout":  "nats.router_close_timeout",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"token_ttl":           "security.token_ttl",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - EMBEDDING_URL -> embedding.url
//   - DUCKDB_PATH -> database.path
//
// Unmapped keys return "" and are skipped so unrelated environment
// variables never leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
