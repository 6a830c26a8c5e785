// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const readinessTimeout = 2 * time.Second

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only if every registered dependency responds.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := h.readinessChecks()
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	components := make(map[string]string, len(checks))
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			ready = false
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	data := map[string]interface{}{
		"ready":      ready,
		"components": components,
		"uptime":     time.Since(h.startTime).Seconds(),
	}
	if !ready {
		respondJSON(w, http.StatusServiceUnavailable, &APIResponse{
			Status:   "not_ready",
			Data:     data,
			Metadata: Metadata{Timestamp: time.Now().UTC()},
		})
		return
	}
	respondSuccess(w, r, http.StatusOK, data, start)
}

// Stats handles GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"index":          h.index.GlobalStats(),
		"tenants_by_age": h.index.Tenants(),
		"uptime":         time.Since(h.startTime).Seconds(),
	}, start)
}
