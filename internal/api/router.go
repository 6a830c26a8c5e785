// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/authz"
	"github.com/tomtom215/shelfwise/internal/middleware"
	"github.com/tomtom215/shelfwise/internal/validation"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		auth:          authMW,
		authz:         authzMW,
		chiMiddleware: chiMW,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(middleware.DefaultSlowRequestThreshold))
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.auth.Authenticate)

		r.With(router.authz.Authorize(authz.ObjectSystem, authz.ActionRead)).Get("/stats", h.Stats)

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Use(validTenant)
			r.Use(router.auth.RequireTenant("tenantID"))
			router.tenantRoutes(r)
		})
	})

	return r
}

func (router *Router) tenantRoutes(r chi.Router) {
	h := router.handler
	readCatalog := router.authz.Authorize(authz.ObjectCatalog, authz.ActionRead)
	writeCatalog := router.authz.Authorize(authz.ObjectCatalog, authz.ActionWrite)
	readRules := router.authz.Authorize(authz.ObjectRules, authz.ActionRead)
	writeRules := router.authz.Authorize(authz.ObjectRules, authz.ActionWrite)
	readRecommend := router.authz.Authorize(authz.ObjectRecommend, authz.ActionRead)
	ingestLimit := router.chiMiddleware.RateLimitCustom(RateLimitIngest)

	r.Route("/catalog", func(r chi.Router) {
		r.With(writeCatalog).Delete("/", h.ClearCatalog)
		r.With(writeCatalog).Post("/flush", h.FlushCatalog)
		r.With(readCatalog).Get("/stats", h.CatalogStats)
		r.With(readCatalog).Post("/search", h.Search)
		r.With(readCatalog).Post("/query", h.Query)
		r.With(writeCatalog, ingestLimit).Post("/products", h.IngestProducts)
		r.With(writeCatalog, ingestLimit).Post("/items", h.AddItems)
		r.With(writeCatalog).Post("/items/delete", h.RemoveItems)
		r.With(readCatalog).Get("/items/{itemID}", h.GetItem)
		r.With(writeCatalog).Delete("/items/{itemID}", h.RemoveItem)
	})

	r.With(writeRules, ingestLimit).Post("/orders", h.RecordOrders)
	r.With(writeRules).Post("/orders/learn", h.LearnRules)
	r.With(readRules).Get("/rules", h.RulesSummary)

	r.Route("/products/{productID}", func(r chi.Router) {
		r.Use(readRecommend)
		r.Get("/similar", h.SimilarProducts)
		r.Get("/bought-together", h.BoughtTogether)
	})

	r.Route("/recommendations", func(r chi.Router) {
		r.Use(readRecommend)
		r.Post("/cart", h.CartRecommendations)
		r.Post("/personalized", h.Personalized)
		r.Post("/voice", h.Voice)
	})
}

// validTenant rejects malformed tenant ids before they reach storage.
func validTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validation.ValidTenantID(chi.URLParam(r, "tenantID")) {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid tenant id", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
