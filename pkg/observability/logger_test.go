package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
)

func TestSpanHandler_InjectsSpanContext(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	var buf bytes.Buffer

	logger := slog.New(observability.NewSpanHandler(
		slog.NewJSONHandler(&buf, nil), "flowlens", "", observability.ModeCLI))

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.WithGroup("flow").InfoContext(ctx, "built", "nodes", 4)
	span.End()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "flowlens", entry["service"])
	assert.Equal(t, "cli", entry["mode"])
	assert.NotContains(t, entry, "env")

	group, ok := entry["flow"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, span.SpanContext().TraceID().String(), group["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), group["span_id"])
	assert.InDelta(t, 4, group["nodes"], 0)
}

func TestSpanHandler_ErrorsBecomeSpanEvents(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	var buf bytes.Buffer

	logger := slog.New(observability.NewSpanHandler(
		slog.NewJSONHandler(&buf, nil), "flowlens", "test", observability.ModeServe))

	ctx, span := tp.Tracer("test").Start(context.Background(), "GET /api/flow")
	logger.InfoContext(ctx, "dataset loaded")
	logger.ErrorContext(ctx, "encode response failed")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1, "only error lines are recorded on the span")
	assert.Equal(t, "log.error", spans[0].Events[0].Name)
	assert.Contains(t, spans[0].Events[0].Attributes, attribute.String("message", "encode response failed"))

	logger.ErrorContext(context.Background(), "no span")
	assert.Contains(t, buf.String(), `"env":"test"`)
}
