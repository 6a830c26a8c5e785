// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Enabled(t *testing.T) {
	withGlobalLevel(t, zerolog.TraceLevel)

	handler := NewSlogHandler(zerolog.New(nil).Level(zerolog.WarnLevel))

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, false},
		{slog.LevelInfo, false},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tt := range tests {
		if got := handler.Enabled(context.Background(), tt.level); got != tt.want {
			t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	withGlobalLevel(t, zerolog.TraceLevel)

	tests := []struct {
		name      string
		level     slog.Level
		wantLevel string
	}{
		{"debug", slog.LevelDebug, `"level":"debug"`},
		{"info", slog.LevelInfo, `"level":"info"`},
		{"warn", slog.LevelWarn, `"level":"warn"`},
		{"error", slog.LevelError, `"level":"error"`},
		{"above error", slog.LevelError + 4, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewSlogHandler(zerolog.New(&buf).Level(zerolog.TraceLevel))

			record := slog.NewRecord(time.Now(), tt.level, "service restarted", 0)
			record.AddAttrs(slog.String("service", "learn"), slog.Int("attempt", 2))
			if err := handler.Handle(context.Background(), record); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			output := buf.String()
			for _, want := range []string{tt.wantLevel, "service restarted", `"service":"learn"`, `"attempt":2`} {
				if !strings.Contains(output, want) {
					t.Errorf("output missing %s: %s", want, output)
				}
			}
		})
	}
}

func TestSlogHandler_AttrsAndGroups(t *testing.T) {
	withGlobalLevel(t, zerolog.TraceLevel)

	var buf bytes.Buffer
	base := NewSlogHandler(zerolog.New(&buf))
	handler := base.WithAttrs([]slog.Attr{slog.String("supervisor", "root")}).
		WithGroup("event").
		WithGroup("service")

	logger := slog.New(handler)
	logger.Info("terminated",
		slog.Bool("restarting", true),
		slog.Duration("backoff", time.Second),
		slog.Any("err", errors.New("boom")),
		slog.Group("detail", slog.Float64("ratio", 0.5)),
	)

	output := buf.String()
	for _, want := range []string{
		`"event.service.supervisor":"root"`,
		`"event.service.restarting":true`,
		`"event.service.backoff":`,
		`"event.service.err":"boom"`,
		`"event.service.detail.ratio":0.5`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}

	if base.WithGroup("") != base {
		t.Error("WithGroup(\"\") should return the same handler")
	}
	if base.WithAttrs(nil) != base {
		t.Error("WithAttrs(nil) should return the same handler")
	}
}

func TestNewSlogLogger(t *testing.T) {
	withGlobalLevel(t, zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := NewSlogLogger(NewTestLogger(&buf))
	logger.Debug("hidden")
	logger.Warn("shown", "tenant", "shop-a")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("debug record written below global level: %s", output)
	}
	if !strings.Contains(output, `"tenant":"shop-a"`) {
		t.Errorf("output missing attribute: %s", output)
	}
}
