// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGeneratedIDs(t *testing.T) {
	if id := GenerateCorrelationID(); len(id) != 8 {
		t.Errorf("GenerateCorrelationID() = %q, want 8 characters", id)
	}
	a, b := GenerateRequestID(), GenerateRequestID()
	if len(a) != 36 || a == b {
		t.Errorf("GenerateRequestID() = %q, %q, want distinct UUIDs", a, b)
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" || TenantIDFromContext(ctx) != "" {
		t.Fatal("empty context returned a value")
	}

	ctx = ContextWithCorrelationID(ctx, "evt-1")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithTenantID(ctx, "shop-a")

	if got := CorrelationIDFromContext(ctx); got != "evt-1" {
		t.Errorf("CorrelationIDFromContext() = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := TenantIDFromContext(ctx); got != "shop-a" {
		t.Errorf("TenantIDFromContext() = %q", got)
	}
}

func TestCtx(t *testing.T) {
	withGlobalLevel(t, zerolog.InfoLevel)

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-42")
	ctx = ContextWithTenantID(ctx, "shop-b")

	Ctx(ctx).Info().Msg("recommendations served")

	output := buf.String()
	for _, want := range []string{`"request_id":"req-42"`, `"tenant":"shop-b"`, "recommendations served"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}
	if strings.Contains(output, "correlation_id") {
		t.Errorf("output has correlation_id without one in context: %s", output)
	}
}

func TestCtxWith(t *testing.T) {
	withGlobalLevel(t, zerolog.InfoLevel)

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abc12345")

	logger := CtxWith(ctx).Str("topic", "shelfwise.orders").Logger()
	logger.Info().Msg("event handled")

	output := buf.String()
	if !strings.Contains(output, `"correlation_id":"abc12345"`) || !strings.Contains(output, `"topic":"shelfwise.orders"`) {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestLoggerFromContext_Global(t *testing.T) {
	withGlobalLevel(t, zerolog.InfoLevel)
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := LoggerFromContext(context.Background())
	logger.Info().Msg("from global")

	if !strings.Contains(buf.String(), "from global") {
		t.Errorf("global logger not used: %s", buf.String())
	}
}
