// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/eventprocessor"
	"github.com/tomtom215/shelfwise/internal/logging"
)

// NATSComponents holds the event bus. The connection, stream and publisher
// live for the whole process; the subscriber and router are rebuilt by every
// Start so the supervisor can restart consumption after a failure.
type NATSComponents struct {
	cfg      config.NATSConfig
	logger   zerolog.Logger
	wmLogger watermill.LoggerAdapter
	handlers *eventprocessor.Handlers

	server    *eventprocessor.EmbeddedServer
	natsConn  *natsgo.Conn
	publisher *eventprocessor.Publisher
	url       string

	// newSubscriber is swapped in tests.
	newSubscriber func() (message.Subscriber, error)

	mu         sync.Mutex
	router     *eventprocessor.Router
	subscriber message.Subscriber
	routerDone chan error
	running    bool
}

// InitNATS starts the embedded server when configured, connects, creates the
// stream and the publisher. It returns nil, nil when the bus is disabled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func InitNATS(ctx context.Context, cfg *config.NATSConfig, handlers *eventprocessor.Handlers, logger zerolog.Logger) (*NATSComponents, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Event bus disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	c := &NATSComponents{
		cfg:      *cfg,
		logger:   logger.With().Str("component", "event-bus").Logger(),
		handlers: handlers,
	}
	c.wmLogger = logging.NewWatermillLogger(c.logger, false)
	c.newSubscriber = c.jetStreamSubscriber

	if cfg.EmbeddedServer {
		serverCfg := eventprocessor.DefaultServerConfig()
		serverCfg.StoreDir = cfg.StoreDir
		serverCfg.JetStreamMaxMem = cfg.MaxMemory
		serverCfg.JetStreamMaxStore = cfg.MaxStore

		srv, err := eventprocessor.NewEmbeddedServer(&serverCfg, c.logger)
		if err != nil {
			return nil, err
		}
		c.server = srv
		c.url = srv.ClientURL()
		c.logger.Info().Str("url", c.url).Msg("Embedded NATS server started")
	} else {
		c.url = cfg.URL
		c.logger.Info().Str("url", c.url).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(c.url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c.natsConn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventprocessor.DefaultStreamConfig()
	initializer, err := eventprocessor.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	stream, err := initializer.EnsureStream(ctx)
	if err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	info := stream.CachedInfo()
	c.logger.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("JetStream stream ready")

	publisher, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(c.url), c.wmLogger)
	if err != nil {
		c.Close(context.Background())
		return nil, err
	}
	publisher.SetCircuitBreaker(eventprocessor.DefaultCircuitBreakerConfig())
	c.publisher = publisher

	return c, nil
}

func (c *NATSComponents) jetStreamSubscriber() (message.Subscriber, error) {
	subCfg := eventprocessor.DefaultSubscriberConfig(c.url)
	if c.cfg.QueueGroup != "" {
		subCfg.QueueGroup = c.cfg.QueueGroup
		subCfg.DurableName = c.cfg.QueueGroup
	}
	return eventprocessor.NewSubscriber(&subCfg, c.wmLogger)
}

// Publisher returns the event publisher, or nil for a disabled bus.
func (c *NATSComponents) Publisher() *eventprocessor.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Start subscribes the catalog and order handlers and returns once the
// router is running.
func (c *NATSComponents) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	sub, err := c.newSubscriber()
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}

	routerCfg := eventprocessor.DefaultRouterConfig()
	routerCfg.RetryMaxRetries = c.cfg.RouterRetryCount
	routerCfg.RetryInitialInterval = c.cfg.RouterRetryInitialInterval
	routerCfg.RetryMaxInterval = c.cfg.RouterRetryInitialInterval * 100
	routerCfg.PoisonQueueTopic = c.cfg.RouterPoisonQueueTopic
	if c.cfg.RouterCloseTimeout > 0 {
		routerCfg.CloseTimeout = c.cfg.RouterCloseTimeout
	}

	var poison message.Publisher
	if c.publisher != nil && routerCfg.PoisonQueueTopic != "" {
		poison = c.publisher.WatermillPublisher()
	}
	router, err := eventprocessor.NewRouter(&routerCfg, poison, c.wmLogger)
	if err != nil {
		_ = sub.Close() //nolint:errcheck // already failing
		return fmt.Errorf("create router: %w", err)
	}
	c.handlers.Register(router, sub, c.cfg.CatalogTopic, c.cfg.OrdersTopic)

	// The router outlives Start; it stops through Shutdown.
	done := make(chan error, 1)
	go func() { done <- router.Run(context.WithoutCancel(ctx)) }()

	select {
	case <-router.Running():
	case err := <-done:
		_ = sub.Close() //nolint:errcheck // already failing
		if err == nil {
			err = errors.New("router stopped before running")
		}
		return fmt.Errorf("run router: %w", err)
	case <-ctx.Done():
		_ = router.Close() //nolint:errcheck // canceled
		_ = sub.Close()    //nolint:errcheck // canceled
		return ctx.Err()
	}

	c.router, c.subscriber, c.routerDone = router, sub, done
	c.running = true
	c.logger.Info().
		Int("handlers", router.HandlerCount()).
		Str("catalog_topic", c.cfg.CatalogTopic).
		Str("orders_topic", c.cfg.OrdersTopic).
		Msg("Event router started")
	return nil
}

// Shutdown stops the router and closes the subscriber. The connection and
// publisher stay open for a later Start; Close releases them.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false

	if err := c.router.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing event router")
	}
	select {
	case err := <-c.routerDone:
		if err != nil {
			c.logger.Error().Err(err).Msg("Event router stopped with error")
		}
	case <-ctx.Done():
		c.logger.Warn().Msg("Event router did not stop before shutdown timeout")
	}
	if err := c.subscriber.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing subscriber")
	}
	c.router, c.subscriber, c.routerDone = nil, nil, nil
	c.logger.Info().Msg("Event router stopped")
}

// Close releases the publisher, the connection and the embedded server, in
// that order. Call it after the supervisor tree has stopped.
func (c *NATSComponents) Close(ctx context.Context) {
	if c == nil {
		return
	}
	c.Shutdown(ctx)

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Error closing publisher")
		}
	}
	if c.natsConn != nil {
		c.natsConn.Close()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			c.logger.Error().Err(err).Msg("Error shutting down NATS server")
		}
	}
	c.logger.Info().Msg("Event bus closed")
}

// IsRunning reports whether the router is consuming.
func (c *NATSComponents) IsRunning() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Ready is the readiness check of the event bus.
func (c *NATSComponents) Ready(context.Context) error {
	if c.natsConn != nil && !c.natsConn.IsConnected() {
		return errors.New("NATS connection is not established")
	}
	if !c.IsRunning() {
		return errors.New("event router is not running")
	}
	return nil
}
