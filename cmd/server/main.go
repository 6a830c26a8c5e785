// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/api"
	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/authz"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/database"
	"github.com/tomtom215/shelfwise/internal/embedding"
	"github.com/tomtom215/shelfwise/internal/eventprocessor"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/reranking"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/storage"
	"github.com/tomtom215/shelfwise/internal/supervisor"
	"github.com/tomtom215/shelfwise/internal/supervisor/services"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// components are the long-lived pieces closed after the supervisor tree stops.
type components struct {
	store   storage.Store
	index   *vectorindex.Manager
	miner   *rules.Miner
	engine  *recommend.Engine
	db      *database.DB // nil without order history
	bus     *NATSComponents
	handler *api.Handler
}

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Backend).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting Shelfwise with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}

	router, err := initRouter(cfg, c.handler, logger)
	if err != nil {
		c.close(cfg)
		logging.Fatal().Err(err).Msg("Failed to initialize HTTP router")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		c.close(cfg)
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	addServices(tree, cfg, c, server, logger)

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort after shutdown
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	c.close(cfg)
	logging.Info().Msg("Application stopped gracefully")
}

// initComponents builds the storage, index, rule miner, recommendation
// engine, order database and event bus. On error everything opened so far
// is closed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initComponents(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*components, error) {
	c := &components{}
	initialized := false
	defer func() {
		if !initialized {
			c.close(cfg)
		}
	}()

	var err error
	c.store, err = storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	// A nil Store must reach the manager and miner as nil interfaces.
	var snapshots vectorindex.SnapshotStore
	var ruleStore rules.RuleStore
	if c.store != nil {
		snapshots, ruleStore = c.store, c.store
	}
	c.index = vectorindex.NewManager(cfg.Index.ManagerConfig(), snapshots, logger)
	c.miner = rules.NewMiner(ruleStore, logger)

	var embedder recommend.Embedder
	if cfg.EmbeddingEnabled() {
		client, err := embedding.NewClient(cfg.Embedding, logger)
		if err != nil {
			return nil, fmt.Errorf("create embedding client: %w", err)
		}
		embedder = client
		logging.Info().Str("url", cfg.Embedding.URL).Int("dimension", client.Dimension()).Msg("Embedding provider configured")
	} else {
		logging.Warn().Msg("No embedding provider configured, products need vectors and two-tower matching is disabled")
	}

	c.engine, err = recommend.NewEngine(&cfg.Recommend, c.index, c.miner, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}
	reranking.RegisterDefaults(c.engine, cfg.Recommend.DiversityFactor)

	var orders api.OrderStore
	var orderSink eventprocessor.OrderSink
	if cfg.Database.Path != "" {
		c.db, err = database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		orders, orderSink = c.db, c.db
		logging.Info().Str("path", cfg.Database.Path).Msg("Order history database initialized")
	} else {
		logging.Info().Msg("Order history disabled (DUCKDB_PATH empty), rules are learned from request orders only")
	}

	c.handler = api.NewHandler(cfg, c.index, c.engine, orders)
	if c.db != nil {
		c.handler.AddReadinessCheck("database", c.db.Ping)
	}

	handlers := eventprocessor.NewHandlers(c.engine, c.index, orderSink, logger)
	c.bus, err = InitNATS(ctx, &cfg.NATS, handlers, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize event bus: %w", err)
	}
	if c.bus != nil {
		c.handler.SetEventPublisher(c.bus.Publisher())
		c.handler.AddReadinessCheck("event_bus", c.bus.Ready)
	}

	initialized = true
	return c, nil
}

// initRouter assembles authentication, authorization and the chi router.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initRouter(cfg *config.Config, handler *api.Handler, logger zerolog.Logger) (http.Handler, error) {
	var jwtManager *auth.JWTManager
	switch cfg.Security.AuthMode {
	case auth.ModeJWT:
		var err error
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("initialize JWT manager: %w", err)
		}
		logging.Info().Str("issuer", cfg.Security.JWTIssuer).Msg("JWT authentication enabled")
	case auth.ModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Every tenant catalog is readable and writable by anyone.")
		logging.Warn().Msg("  Use it only for local development and isolated networks.")
		logging.Warn().Msg("============================================================")
	}

	enforcerCfg := authz.DefaultEnforcerConfig()
	enforcerCfg.PolicyPath = cfg.Security.PolicyPath
	enforcer, err := authz.NewEnforcer(enforcerCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize authorization: %w", err)
	}

	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, logger),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)
	return router.Setup(), nil
}

// addServices places the services in their layers: flushing and learning in
// the data layer, the event bus in the messaging layer, HTTP in the API layer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func addServices(tree *supervisor.SupervisorTree, cfg *config.Config, c *components, server *http.Server, logger zerolog.Logger) {
	var gc services.GarbageCollector
	if badger, ok := c.store.(*storage.BadgerStore); ok {
		gc = badger
	}
	if c.store != nil {
		tree.AddDataService(services.NewFlushService(c.index, gc, services.FlushServiceConfig{
			Interval:   cfg.Flush.Interval,
			GCInterval: cfg.Flush.GCInterval,
		}, logger))
		logging.Info().Dur("interval", cfg.Flush.Interval).Msg("Flush service added")
	}

	if cfg.Learn.Enabled && c.db != nil {
		tree.AddDataService(services.NewLearnService(c.db, c.engine, services.LearnServiceConfig{
			OnStartup: cfg.Learn.OnStartup,
			Interval:  cfg.Learn.Interval,
			Lookback:  cfg.Learn.Lookback,
			MaxOrders: cfg.Learn.MaxOrders,
			Retention: cfg.Learn.Retention,
			Options:   cfg.Rules,
		}, logger))
		logging.Info().Dur("interval", cfg.Learn.Interval).Msg("Learn service added")
	}

	if c.bus != nil {
		tree.AddMessagingService(services.NewEventBusService(c.bus, cfg.NATS.RouterCloseTimeout+5*time.Second))
		logging.Info().Msg("Event bus service added")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))
}

// close releases the event bus, flushes the index and closes storage and
// the database, in that order.
func (c *components) close(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+cfg.Index.PersistTimeout)
	defer cancel()

	c.bus.Close(ctx)
	if c.index != nil {
		if err := c.index.Close(ctx); err != nil {
			logging.Error().Err(err).Msg("Error flushing index snapshots")
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
}
