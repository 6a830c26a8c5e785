// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package supervisor runs Shelfwise's long-running services under a suture v4
tree.

# Layout

	RootSupervisor ("shelfwise")
	├── DataSupervisor ("data-layer")
	│   ├── FlushService (snapshot flush, Badger value log GC)
	│   └── LearnService (if learn.enabled and a database is configured)
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventBusService (if nats.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures on its own. A crashing event bus backs off without
touching the HTTP server, which keeps answering from the in-memory indexes.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewFlushService(manager, gc, flushCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logger.Error().Err(err).Msg("Supervisor stopped")
	}

Supervisor events (restarts, backoff, panics) are logged through sutureslog,
which takes a *slog.Logger; logging.NewSlogLogger bridges it to zerolog.

# Restart Policy

Defaults follow suture: a service is restarted immediately after a crash
until its decayed failure count exceeds FailureThreshold (5), after which
restarts wait FailureBackoff (15s). Returning nil from Serve stops a service
for good. Services must return promptly once their context is canceled; the
ones that miss ShutdownTimeout show up in UnstoppedServiceReport.

DuckDB and Badger are not services. They are opened before the tree starts
and closed by main after it stops.
*/
package supervisor
