// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

const testSecret = "router-test-secret-that-is-long-enough"

func withJWT() envOption {
	return withConfig(func(c *config.Config) {
		c.Security.AuthMode = auth.ModeJWT
		c.Security.JWTSecret = testSecret
		c.Security.TokenTTL = time.Hour
	})
}

func (e *testEnv) token(t *testing.T, tenantID, role string) string {
	t.Helper()
	token, err := e.jwt.GenerateToken("tester", tenantID, role)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return "Bearer " + token
}

func TestRouter_Authorization(t *testing.T) {
	e := newTestEnv(t, withJWT())
	seedCatalog(t, e)

	reader := e.token(t, testTenant, auth.RoleReader)
	ingest := e.token(t, testTenant, auth.RoleIngest)
	admin := e.token(t, auth.AllTenants, auth.RoleAdmin)
	otherTenant := e.token(t, "shop-b", auth.RoleAdmin)

	items := AddItemsRequest{Items: []vectorindex.Item{{ID: "hat-1", Vector: []float32{0, 0, 1}}}}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		auth   string
		status int
	}{
		{"no token", http.MethodGet, tenantPath("/catalog/stats"), nil, "", http.StatusUnauthorized},
		{"malformed token", http.MethodGet, tenantPath("/catalog/stats"), nil, "Bearer not-a-jwt", http.StatusUnauthorized},
		{"reader reads catalog", http.MethodGet, tenantPath("/catalog/stats"), nil, reader, http.StatusOK},
		{"reader reads recommendations", http.MethodGet, tenantPath("/products/shoe-1/similar"), nil, reader, http.StatusOK},
		{"reader cannot write catalog", http.MethodPost, tenantPath("/catalog/items"), items, reader, http.StatusForbidden},
		{"reader cannot learn rules", http.MethodPost, tenantPath("/orders/learn"), nil, reader, http.StatusForbidden},
		{"ingest writes catalog", http.MethodPost, tenantPath("/catalog/items"), items, ingest, http.StatusOK},
		{"ingest inherits reads", http.MethodGet, tenantPath("/rules"), nil, ingest, http.StatusOK},
		{"ingest cannot read global stats", http.MethodGet, "/api/v1/stats", nil, ingest, http.StatusForbidden},
		{"cross-tenant token", http.MethodGet, tenantPath("/catalog/stats"), nil, otherTenant, http.StatusForbidden},
		{"admin reads global stats", http.MethodGet, "/api/v1/stats", nil, admin, http.StatusOK},
		{"admin reaches any tenant", http.MethodDelete, tenantPath("/catalog/items/hat-1"), nil, admin, http.StatusOK},
		{"health needs no token", http.MethodGet, "/api/v1/health/live", nil, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.auth != "" {
				headers = []string{"Authorization", tt.auth}
			}
			rec, _ := e.do(t, tt.method, tt.path, tt.body, headers...)
			if rec.Code != tt.status {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(t, http.MethodGet, "/api/v1/nope", nil)
	assertError(t, rec, env, http.StatusNotFound, ErrCodeNotFound)

	rec, env = e.do(t, http.MethodPut, "/api/v1/health/live", nil)
	assertError(t, rec, env, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestRouter_RequestIDPropagation(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(t, http.MethodGet, "/api/v1/health/live", nil, "X-Request-ID", "client-req-42")
	if got := rec.Header().Get("X-Request-ID"); got != "client-req-42" {
		t.Errorf("X-Request-ID = %q, want client-req-42", got)
	}
	if env.Metadata.RequestID != "client-req-42" {
		t.Errorf("metadata.request_id = %q", env.Metadata.RequestID)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	e := newTestEnv(t, withConfig(func(c *config.Config) {
		c.Security.RateLimitDisabled = false
		c.Security.RateLimitReqs = 2
		c.Security.RateLimitWindow = time.Minute
	}))

	for i := 0; i < 2; i++ {
		if rec, _ := e.do(t, http.MethodGet, tenantPath("/catalog/stats"), nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, rec.Code)
		}
	}
	rec, env := e.do(t, http.MethodGet, tenantPath("/catalog/stats"), nil)
	assertError(t, rec, env, http.StatusTooManyRequests, ErrCodeTooManyRequests)

	// Health probes have their own budget.
	if rec, _ := e.do(t, http.MethodGet, "/api/v1/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("health after API limit = %d, want 200", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	e := newTestEnv(t, withConfig(func(c *config.Config) {
		c.Security.CORSOrigins = []string{"https://shop.example"}
	}))

	req := httptest.NewRequest(http.MethodOptions, tenantPath("/catalog/search"), nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if methods := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(methods, http.MethodPost) {
		t.Errorf("Access-Control-Allow-Methods = %q", methods)
	}
}

func TestRouter_Metrics(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodGet, tenantPath("/catalog/stats"), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `endpoint="/api/v1/tenants/{tenantID}/catalog/stats"`) {
		t.Error("route pattern label missing from metrics output")
	}
}
