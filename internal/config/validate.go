// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/shelfwise/internal/storage"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateAPI,
		c.validateLogging,
		c.validateIndex,
		c.validateRules,
		c.validateLearn,
		c.validateFlush,
		c.validateRecommend,
		c.validateEmbedding,
		c.validateStorage,
		c.validateDatabase,
		c.validateNATS,
		c.validateSecurity,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.MaxTopK < 1 {
		return fmt.Errorf("API_MAX_TOP_K must be at least 1")
	}
	if c.API.MaxBatchSize < 1 {
		return fmt.Errorf("API_MAX_BATCH_SIZE must be at least 1")
	}
	if c.API.MaxBodyBytes < 1024 {
		return fmt.Errorf("API_MAX_BODY_BYTES must be at least 1024")
	}
	return nil
}

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateIndex() error {
	if c.Index.Dimension < 1 {
		return fmt.Errorf("INDEX_DIMENSION must be at least 1")
	}
	if c.Index.MaxElements < 1 {
		return fmt.Errorf("INDEX_MAX_ELEMENTS must be at least 1")
	}
	if c.Index.MaxTenants < 1 {
		return fmt.Errorf("INDEX_MAX_TENANTS must be at least 1")
	}
	return nil
}

func (c *Config) validateRules() error {
	// Negative thresholds disable the check.
	if c.Rules.MinSupport > 1 {
		return fmt.Errorf("RULES_MIN_SUPPORT must be at most 1")
	}
	if c.Rules.MinConfidence > 1 {
		return fmt.Errorf("RULES_MIN_CONFIDENCE must be at most 1")
	}
	if c.Rules.MaxRulesPerProduct < 0 {
		return fmt.Errorf("RULES_MAX_PER_PRODUCT must not be negative")
	}
	return nil
}

const minLearnInterval = time.Minute

func (c *Config) validateLearn() error {
	if !c.Learn.Enabled {
		return nil
	}
	if c.Learn.Interval < minLearnInterval {
		return fmt.Errorf("LEARN_INTERVAL must be at least %v", minLearnInterval)
	}
	if c.Learn.Lookback < 0 || c.Learn.Retention < 0 || c.Learn.MaxOrders < 0 {
		return fmt.Errorf("LEARN_LOOKBACK, LEARN_RETENTION and LEARN_MAX_ORDERS must not be negative")
	}
	return nil
}

func (c *Config) validateFlush() error {
	if c.Flush.Interval < time.Second {
		return fmt.Errorf("FLUSH_INTERVAL must be at least 1s")
	}
	if c.Flush.GCInterval < 0 {
		return fmt.Errorf("FLUSH_GC_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

// validateEmbedding validates the provider only when one is configured and
// requires its dimension to match the index.
func (c *Config) validateEmbedding() error {
	if !c.EmbeddingEnabled() {
		return nil
	}
	if err := validateHTTPURL(c.Embedding.URL, "EMBEDDING_URL"); err != nil {
		return err
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if c.Embedding.Dimension != c.Index.Dimension {
		return fmt.Errorf("EMBEDDING_DIMENSION (%d) must equal INDEX_DIMENSION (%d)",
			c.Embedding.Dimension, c.Index.Dimension)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case storage.BackendBadger:
		if c.Storage.Badger.Path == "" && !c.Storage.Badger.InMemory {
			return fmt.Errorf("STORAGE_PATH is required when STORAGE_BACKEND=badger")
		}
	case storage.BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("STORAGE_DIR is required when STORAGE_BACKEND=file")
		}
	case storage.BackendMemory, "":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: badger, file, memory")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

// NATS limit constants
const (
	natsMinMemory = 16 * 1024 * 1024 // 16MB
	natsMinStore  = 64 * 1024 * 1024 // 64MB
)

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.CatalogTopic == "" || c.NATS.OrdersTopic == "" {
		return fmt.Errorf("NATS_CATALOG_TOPIC and NATS_ORDERS_TOPIC are required when NATS_ENABLED=true")
	}
	if c.NATS.CatalogTopic == c.NATS.OrdersTopic {
		return fmt.Errorf("NATS_CATALOG_TOPIC and NATS_ORDERS_TOPIC must differ")
	}
	if c.NATS.RouterRetryCount < 0 {
		return fmt.Errorf("NATS_ROUTER_RETRY_COUNT must not be negative")
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.MaxMemory < natsMinMemory {
			return fmt.Errorf("NATS_MAX_MEMORY must be at least 16MB (16777216 bytes)")
		}
		if c.NATS.MaxStore < natsMinStore {
			return fmt.Errorf("NATS_MAX_STORE must be at least 64MB (67108864 bytes)")
		}
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	case "none":
		// Refuse to run unauthenticated in production.
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if wildcard CORS is combined with authentication.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// validateHTTPURL validates that a URL is a base http(s) URL without query parameters.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}

// validateNATSURL accepts nats://, tls://, ws:// and wss:// URLs with a host.
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
