// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/cache"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects guarded by the policy.
const (
	ObjectCatalog   = "catalog"
	ObjectRules     = "rules"
	ObjectRecommend = "recommend"
	ObjectSystem    = "system"
)

// Actions.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// PolicyPath is a Casbin policy CSV. Empty uses the embedded policy.
	PolicyPath string

	// CacheEnabled enables enforcement decision caching.
	CacheEnabled bool

	// CacheTTL is how long to cache decisions.
	CacheTTL time.Duration

	// CacheSize bounds the number of cached decisions.
	CacheSize int
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
		CacheSize:    1024,
	}
}

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	cache    *cache.LRU[string, bool]
	logger   zerolog.Logger
}

// NewEnforcer creates a new authorization enforcer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEnforcer(cfg *EnforcerConfig, logger zerolog.Logger) (*Enforcer, error) {
	if cfg == nil {
		cfg = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	source := "embedded"
	if cfg.PolicyPath != "" {
		if _, statErr := os.Stat(cfg.PolicyPath); statErr != nil {
			return nil, fmt.Errorf("policy file: %w", statErr)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
		source = cfg.PolicyPath
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{
		enforcer: enforcer,
		logger:   logger.With().Str("component", "authz").Logger(),
	}
	if cfg.CacheEnabled {
		e.cache = cache.NewLRU[string, bool](cfg.CacheSize, cfg.CacheTTL)
	}

	e.logger.Info().
		Str("policy", source).
		Bool("cache", cfg.CacheEnabled).
		Msg("Authorization policy loaded")
	return e, nil
}

// loadEmbeddedPolicy parses "p" and "g" lines of a policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rule := parts[1:]

		switch parts[0] {
		case "p":
			if len(rule) != 3 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case "g":
			if len(rule) != 2 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// Enforce reports whether role may perform action on object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	if role == "" {
		return false, errors.New("role is required")
	}

	start := time.Now()
	key := role + ":" + object + ":" + action
	if e.cache != nil {
		if allowed, ok := e.cache.Get(key); ok {
			RecordDecision(role, object, action, allowed, true, time.Since(start))
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	if e.cache != nil {
		e.cache.Add(key, allowed)
	}

	RecordDecision(role, object, action, allowed, false, time.Since(start))
	return allowed, nil
}

// RolesFor returns the roles role inherits, including itself.
func (e *Enforcer) RolesFor(role string) []string {
	inherited, err := e.enforcer.GetImplicitRolesForUser(role)
	if err != nil {
		e.logger.Warn().Err(err).Str("role", role).Msg("Role lookup failed")
		return []string{role}
	}
	return append([]string{role}, inherited...)
}

// ClearCache drops cached decisions.
func (e *Enforcer) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}
