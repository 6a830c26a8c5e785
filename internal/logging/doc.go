// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package logging provides the process-wide zerolog logger for Shelfwise.
//
// Every component receives a zerolog.Logger at construction and derives a
// child with a "component" field. This package owns the root of that tree
// and the adapters that let other libraries write into it:
//
//   - Init configures level, format (json or console) and caller output
//   - Ctx enriches a logger with request, correlation and tenant ids
//     carried on a context.Context
//   - NewSlogLogger bridges slog for the suture supervisor (sutureslog)
//   - NewWatermillLogger bridges watermill.LoggerAdapter for the event router
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logger := logging.WithComponent("api")
//	logger.Info().Int("port", 3860).Msg("Server starting")
//
//	// Inside a handler
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("Embedding failed")
//
// # Configuration
//
// Environment variables (through the config package):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// Always terminate log chains with .Msg() or .Send(); an event without
// either is never written.
package logging
