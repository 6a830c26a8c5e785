// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"time"

	"github.com/tomtom215/shelfwise/internal/embedding"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/storage"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	API       APIConfig        `koanf:"api"`
	Logging   LoggingConfig    `koanf:"logging"`
	Index     IndexConfig      `koanf:"index"`
	Rules     rules.Options    `koanf:"rules"`
	Learn     LearnConfig      `koanf:"learn"`
	Flush     FlushConfig      `koanf:"flush"`
	Recommend recommend.Config `koanf:"recommend"`
	Embedding embedding.Config `koanf:"embedding"`
	Storage   storage.Config   `koanf:"storage"`
	Database  DatabaseConfig   `koanf:"database"`
	NATS      NATSConfig       `koanf:"nats"`
	Security  SecurityConfig   `koanf:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production"
}

// APIConfig bounds request sizes.
type APIConfig struct {
	// MaxTopK caps the top_k / limit parameter of every endpoint.
	MaxTopK int `koanf:"max_top_k"`

	// MaxBatchSize caps catalog items and orders per request.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// IndexConfig sizes the per-tenant similarity indexes.
type IndexConfig struct {
	// Dimension is the vector length every tenant index accepts.
	// Must match the embedding provider when one is configured.
	Dimension int `koanf:"dimension"`

	// MaxElements caps records per tenant.
	MaxElements int `koanf:"max_elements"`

	// MaxTenants caps resident tenants; the oldest is evicted (after saving) beyond it.
	MaxTenants int `koanf:"max_tenants"`

	// PersistTimeout bounds snapshot saves triggered by eviction.
	PersistTimeout time.Duration `koanf:"persist_timeout"`
}

// ManagerConfig converts the section into the index manager configuration.
func (c IndexConfig) ManagerConfig() vectorindex.ManagerConfig {
	return vectorindex.ManagerConfig{
		Dimension:      c.Dimension,
		MaxElements:    c.MaxElements,
		MaxTenants:     c.MaxTenants,
		PersistTimeout: c.PersistTimeout,
	}
}

// LearnConfig drives periodic re-learning of association rules from the
// order history stored in DuckDB.
type LearnConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Interval  time.Duration `koanf:"interval"`
	OnStartup bool          `koanf:"on_startup"`

	// Lookback limits the history to orders newer than now-Lookback. Zero loads everything.
	Lookback time.Duration `koanf:"lookback"`

	// MaxOrders keeps only the most recent orders per tenant. Zero means no limit.
	MaxOrders int `koanf:"max_orders"`

	// Retention purges stored orders older than now-Retention after each run. Zero keeps them.
	Retention time.Duration `koanf:"retention"`
}

// FlushConfig drives periodic snapshot persistence.
type FlushConfig struct {
	Interval time.Duration `koanf:"interval"`

	// GCInterval runs Badger value log GC. Ignored for other backends.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)
}

// NATSConfig holds event ingestion settings.
type NATSConfig struct {
	// Enabled controls whether catalog and order events are consumed.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server with JetStream.
	// If false, expects an external server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory of the embedded server.
	StoreDir string `koanf:"store_dir"`

	MaxMemory int64 `koanf:"max_memory"`
	MaxStore  int64 `koanf:"max_store"`

	// Topics consumed by the router.
	CatalogTopic string `koanf:"catalog_topic"`
	OrdersTopic  string `koanf:"orders_topic"`

	// QueueGroup load-balances consumers across replicas.
	QueueGroup string `koanf:"queue_group"`

	// Router middleware
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// SecurityConfig holds authentication and HTTP protection settings
type SecurityConfig struct {
	// AuthMode is "jwt" or "none".
	AuthMode string `koanf:"auth_mode"`

	// JWTSecret signs and verifies HS256 tenant tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// JWTIssuer is set on issued tokens and required on incoming ones when non-empty.
	JWTIssuer string `koanf:"jwt_issuer"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// PolicyPath overrides the built-in role policy with a Casbin CSV file.
	PolicyPath string `koanf:"policy_path"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// EmbeddingEnabled reports whether a text embedding provider is configured.
func (c *Config) EmbeddingEnabled() bool {
	return c.Embedding.URL != ""
}
