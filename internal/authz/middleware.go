// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/logging"
)

// Middleware enforces the role policy on routes.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize allows the request through when the authenticated role may
// perform action on object.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeForbidden(w, "No authentication context")
				return
			}

			allowed, err := m.enforcer.Enforce(claims.Role, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("role", claims.Role).Msg("Authorization error")
				writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Debug().
					Str("role", claims.Role).
					Str("object", object).
					Str("action", action).
					Msg("Authorization denied")
				writeForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusForbidden, "FORBIDDEN", message)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // client gone
		"status": "error",
		"error":  map[string]string{"code": code, "message": message},
	})
}
