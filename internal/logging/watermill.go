// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillLogger implements watermill.LoggerAdapter with zerolog.
// Watermill's own info messages are chatty (one per subscriber start and
// handler registration), so they are written at debug unless verbose is set.
type WatermillLogger struct {
	logger  zerolog.Logger
	verbose bool
}

// NewWatermillLogger returns a watermill.LoggerAdapter writing to logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillLogger(logger zerolog.Logger, verbose bool) *WatermillLogger {
	return &WatermillLogger{logger: logger, verbose: verbose}
}

// Error logs an error with fields.
func (l *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

// Info logs at info level when verbose, otherwise at debug.
func (l *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	event := l.logger.Debug()
	if l.verbose {
		event = l.logger.Info()
	}
	event.Fields(map[string]interface{}(fields)).Msg(msg)
}

// Debug logs at debug level.
func (l *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Trace logs at trace level.
func (l *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

// With returns an adapter whose messages carry fields.
func (l *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{
		logger:  l.logger.With().Fields(map[string]interface{}(fields)).Logger(),
		verbose: l.verbose,
	}
}

var _ watermill.LoggerAdapter = (*WatermillLogger)(nil)
