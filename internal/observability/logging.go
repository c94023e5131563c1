// Package observability carries build and page identity through a
// context.Context and onto every slog record.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/pagehooks/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID   string
	Route     string
	Permalink string
	Worker    int // 0 when not running in a build worker
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithPage adds the route and permalink of the page being rendered.
func WithPage(ctx context.Context, route, permalink string) context.Context {
	lc := extractLogContext(ctx)
	lc.Route = route
	lc.Permalink = permalink
	return context.WithValue(ctx, logContextKey, lc)
}

// WithWorker adds the build worker number (1-based).
func WithWorker(ctx context.Context, worker int) context.Context {
	lc := extractLogContext(ctx)
	lc.Worker = worker
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from ctx.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	var attrs []slog.Attr
	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Route != "" {
		attrs = append(attrs, logfields.Route(lc.Route))
	}
	if lc.Permalink != "" {
		attrs = append(attrs, logfields.Permalink(lc.Permalink))
	}
	if lc.Worker > 0 {
		attrs = append(attrs, logfields.Worker(lc.Worker))
	}
	return attrs
}

// ContextHandler wraps a slog.Handler and adds the LogContext of each
// record's context as attributes.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := getLogAttrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
