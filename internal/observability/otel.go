package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// NewLogger builds a slog.Logger that fans every record out to base
// (the operator-facing console handler) and to the OpenTelemetry SDK
// log pipeline via the otelslog bridge, so every record is also
// available to whatever log processor is later attached to the
// returned provider. The pack ships no OTLP log exporter, so the
// provider runs with its default (no-op) processor set — the
// bridge/provider wiring is exercised end to end (every record really
// does reach Emit on the SDK-backed handler), but nothing is shipped
// off-box until an exporter dependency is added; see DESIGN.md.
func NewLogger(serviceName string, base slog.Handler) (*slog.Logger, func(context.Context) error) {
	provider := sdklog.NewLoggerProvider()
	otelHandler := otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(provider))
	return slog.New(newFanoutHandler(base, otelHandler)), provider.Shutdown
}

// fanoutHandler forwards every record to each of its member handlers,
// mirroring MultiSink's fan-out shape for the driver.Sink interface.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return newFanoutHandler(next...)
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return newFanoutHandler(next...)
}
