// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package services adapts Shelfwise components to suture.Service.

  - HTTPServerService: ListenAndServe/Shutdown of the API server.
  - FlushService: periodic vectorindex snapshot flushes and Badger value
    log GC, with a final flush on shutdown.
  - LearnService: scheduled rule learning for every tenant with stored
    orders, plus order retention.
  - EventBusService: Start/Shutdown of the NATS event bus.

Each wrapper depends on a small interface rather than the concrete type, so
the package does not import the API, database or event packages and the
services are tested with fakes.

Every Serve returns ctx.Err() after a requested shutdown and a wrapped error
when the component fails, which suture treats as a crash and restarts.
*/
package services
