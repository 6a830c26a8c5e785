// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
)

// EmbeddedServer runs a NATS JetStream server inside the process for
// single-instance deployments.
type EmbeddedServer struct {
	server    *server.Server
	config    ServerConfig
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server.
// Returns an error if the server is not ready within 30 seconds.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEmbeddedServer(cfg *ServerConfig, logger zerolog.Logger) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "shelfwise-events",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		MaxPayload:         8 * 1024 * 1024, // catalog batches can be large
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLogger(&natsLogger{logger: logger.With().Str("component", "nats-server").Logger()}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		config:    *cfg,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits until it has exited or ctx is done.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.server.Shutdown()
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning returns server health status.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled returns whether JetStream is enabled.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}

// natsLogger implements server.Logger with zerolog.
type natsLogger struct {
	logger zerolog.Logger
}

func (l *natsLogger) Noticef(format string, v ...interface{}) { l.logger.Info().Msgf(format, v...) }
func (l *natsLogger) Warnf(format string, v ...interface{})   { l.logger.Warn().Msgf(format, v...) }
func (l *natsLogger) Errorf(format string, v ...interface{})  { l.logger.Error().Msgf(format, v...) }
func (l *natsLogger) Debugf(format string, v ...interface{})  { l.logger.Debug().Msgf(format, v...) }
func (l *natsLogger) Tracef(format string, v ...interface{})  { l.logger.Trace().Msgf(format, v...) }

// Fatalf logs at error level; the server shuts itself down after a fatal error.
func (l *natsLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Bool("fatal", true).Msgf(format, v...)
}
