// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/logging"
)

type contextKey string

// ClaimsContextKey stores *Claims in the request context.
const ClaimsContextKey contextKey = "claims"

// Auth modes.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// ContextWithClaims stores claims in ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// Middleware authenticates requests.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
	logger     zerolog.Logger
}

// NewMiddleware creates the authentication middleware. jwtManager may be
// nil when authMode is "none".
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMiddleware(jwtManager *JWTManager, authMode string, logger zerolog.Logger) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		authMode:   authMode,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// Authenticate verifies the bearer token and stores its claims.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == ModeNone {
			claims := &Claims{TenantID: AllTenants, Role: RoleAdmin}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="shelfwise"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Token rejected")
			w.Header().Set("WWW-Authenticate", `Bearer realm="shelfwise", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// RequireTenant rejects requests whose claims do not cover the tenant in
// the {param} route parameter, and records the tenant for logging.
func (m *Middleware) RequireTenant(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := chi.URLParam(r, param)
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if !claims.CanAccessTenant(tenantID) {
				m.logger.Warn().
					Str("subject", claims.Subject).
					Str("token_tenant", claims.TenantID).
					Str("tenant", tenantID).
					Msg("Cross-tenant access denied")
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Token is not valid for this tenant")
				return
			}
			next.ServeHTTP(w, r.WithContext(logging.ContextWithTenantID(r.Context(), tenantID)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type errorBody struct {
	Status string       `json:"status"`
	Error  errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes the API error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{ //nolint:errcheck // client gone
		Status: "error",
		Error:  errorPayload{Code: code, Message: message},
	})
}
