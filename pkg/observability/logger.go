package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"

	// logEventName names the span event recorded for error-level log lines.
	logEventName = "log.error"
)

// SpanHandler correlates flowlens log lines with the request or command span
// that produced them. Every line carries the span's trace_id and span_id, and
// lines at error level are also added to the span as a "log.error" event.
type SpanHandler struct {
	next slog.Handler
}

// NewSpanHandler wraps next. The service, mode and env attributes are bound
// before any group, so they stay top-level keys.
func NewSpanHandler(next slog.Handler, service, env string, appMode AppMode) *SpanHandler {
	fixed := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		fixed = append(fixed, slog.String(attrEnv, env))
	}

	return &SpanHandler{next: next.WithAttrs(fixed)}
}

func (h *SpanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SpanHandler) Handle(ctx context.Context, rec slog.Record) error {
	span := trace.SpanFromContext(ctx)

	if sc := span.SpanContext(); sc.IsValid() {
		rec.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)

		if rec.Level >= slog.LevelError && span.IsRecording() {
			span.AddEvent(logEventName, trace.WithAttributes(attribute.String("message", rec.Message)))
		}
	}

	err := h.next.Handle(ctx, rec)
	if err != nil {
		return fmt.Errorf("span handler: %w", err)
	}

	return nil
}

func (h *SpanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SpanHandler{next: h.next.WithAttrs(attrs)}
}

func (h *SpanHandler) WithGroup(name string) slog.Handler {
	return &SpanHandler{next: h.next.WithGroup(name)}
}
