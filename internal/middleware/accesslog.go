// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/shelfwise/internal/logging"
)

// DefaultSlowRequestThreshold is the latency above which requests are logged at warn level.
const DefaultSlowRequestThreshold = 500 * time.Millisecond

// AccessLog logs each request with its status, size and duration using the
// request-scoped logger. Requests slower than slow are logged as warnings.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequestThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			log := logging.Ctx(r.Context())
			event := log.Debug()
			switch {
			case wrapper.statusCode >= http.StatusInternalServerError:
				event = log.Error()
			case duration > slow:
				event = log.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", wrapper.statusCode).
				Int("bytes", wrapper.bytes).
				Dur("duration", duration).
				Msg("HTTP request")
		})
	}
}
