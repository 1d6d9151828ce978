package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	// Initially empty.
	assert.Equal(t, "", AutomationID(ctx))
	assert.Equal(t, "", SessionID(ctx))
	assert.Equal(t, "", NodeID(ctx))

	// Set values.
	ctx = WithAutomationID(ctx, "auto-123")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithNodeID(ctx, "node-42")

	// Round-trip.
	assert.Equal(t, "auto-123", AutomationID(ctx))
	assert.Equal(t, "sess-1", SessionID(ctx))
	assert.Equal(t, "node-42", NodeID(ctx))
}

func TestCorrelationHandlerInjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx := context.Background()
	ctx = WithAutomationID(ctx, "auto-abc")
	ctx = WithSessionID(ctx, "sess-x")
	ctx = WithNodeID(ctx, "node-7")

	logger.InfoContext(ctx, "test message")

	output := buf.String()
	assert.Contains(t, output, "automation_id=auto-abc")
	assert.Contains(t, output, "session_id=sess-x")
	assert.Contains(t, output, "node_id=node-7")
	assert.Contains(t, output, "test message")
}

func TestCorrelationHandlerMissingKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	// Only set the session ID; the other keys should not appear.
	ctx := WithSessionID(context.Background(), "sess-only")
	logger.InfoContext(ctx, "partial context")

	output := buf.String()
	assert.Contains(t, output, "session_id=sess-only")
	assert.NotContains(t, output, "automation_id")
	assert.NotContains(t, output, "node_id")
}

func TestCorrelationHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	child := logger.With(slog.String("component", "store")).WithGroup("op")
	child.InfoContext(WithAutomationID(context.Background(), "auto-9"), "saved",
		slog.String("table", "automations"))

	output := buf.String()
	assert.Contains(t, output, "component=store")
	assert.Contains(t, output, "op.table=automations")
	assert.Contains(t, output, "automation_id=auto-9")
}
