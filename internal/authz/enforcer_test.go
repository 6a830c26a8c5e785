// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package authz

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func setupEnforcer(t *testing.T, cfg *EnforcerConfig) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return e
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	e := setupEnforcer(t, nil)

	tests := []struct {
		role, object, action string
		want                 bool
	}{
		{"reader", ObjectCatalog, ActionRead, true},
		{"reader", ObjectRecommend, ActionRead, true},
		{"reader", ObjectRules, ActionRead, true},
		{"reader", ObjectCatalog, ActionWrite, false},
		{"reader", ObjectSystem, ActionRead, false},
		{"ingest", ObjectCatalog, ActionWrite, true},
		{"ingest", ObjectRules, ActionWrite, true},
		{"ingest", ObjectRecommend, ActionRead, true},
		{"ingest", ObjectSystem, ActionRead, false},
		{"admin", ObjectSystem, ActionRead, true},
		{"admin", ObjectCatalog, ActionWrite, true},
		{"stranger", ObjectCatalog, ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforcer_EmptyRole(t *testing.T) {
	e := setupEnforcer(t, nil)
	if _, err := e.Enforce("", ObjectCatalog, ActionRead); err == nil {
		t.Error("Enforce() error = nil for empty role")
	}
}

func TestEnforcer_Cache(t *testing.T) {
	e := setupEnforcer(t, DefaultEnforcerConfig())
	if _, err := e.Enforce("reader", ObjectRules, ActionRead); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if e.cache.Len() != 1 {
		t.Fatalf("cache size = %d, want 1", e.cache.Len())
	}
	if _, err := e.Enforce("reader", ObjectRules, ActionRead); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if cacheHits, _, _ := e.cache.Stats(); cacheHits != 1 {
		t.Errorf("cache hits = %d, want 1", cacheHits)
	}

	e.ClearCache()
	if e.cache.Len() != 0 {
		t.Errorf("cache size after clear = %d", e.cache.Len())
	}
}

func TestEnforcer_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	policy := "p, reader, catalog, read\np, auditor, rules, read\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	e := setupEnforcer(t, &EnforcerConfig{PolicyPath: path})

	if ok, _ := e.Enforce("auditor", ObjectRules, ActionRead); !ok {
		t.Error("auditor denied rules read from policy file")
	}
	if ok, _ := e.Enforce("reader", ObjectRecommend, ActionRead); ok {
		t.Error("reader allowed recommend read not in policy file")
	}
}

func TestNewEnforcer_MissingPolicyFile(t *testing.T) {
	_, err := NewEnforcer(&EnforcerConfig{PolicyPath: filepath.Join(t.TempDir(), "nope.csv")}, zerolog.Nop())
	if err == nil {
		t.Error("NewEnforcer() error = nil for missing policy file")
	}
}

func TestEnforcer_RolesFor(t *testing.T) {
	e := setupEnforcer(t, nil)
	roles := e.RolesFor("admin")
	for _, want := range []string{"admin", "ingest", "reader"} {
		if !slices.Contains(roles, want) {
			t.Errorf("RolesFor(admin) = %v, missing %s", roles, want)
		}
	}
}

func TestLoadEmbeddedPolicy_Malformed(t *testing.T) {
	e := setupEnforcer(t, &EnforcerConfig{})
	for _, policy := range []string{"p, reader, catalog", "g, reader", "x, a, b, c"} {
		if err := loadEmbeddedPolicy(e.enforcer, policy); err == nil {
			t.Errorf("loadEmbeddedPolicy(%q) error = nil", policy)
		}
	}
}

func TestRecordDecision(t *testing.T) {
	counter := AuthzDecisionsTotal.WithLabelValues("reader", "test-object", ActionRead, "deny")
	before := testutil.ToFloat64(counter)
	RecordDecision("reader", "test-object", ActionRead, false, false, 0)
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("deny counter = %v, want %v", got, before+1)
	}
}
