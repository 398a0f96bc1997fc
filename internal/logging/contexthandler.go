package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ContextProvider is a function that returns dynamic context attributes.
type ContextProvider func() []slog.Attr

// ContextHandler wraps another handler and injects dynamic context attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		inner:    h.inner.WithAttrs(attrs),
		provider: h.provider,
	}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{
		inner:    h.inner.WithGroup(name),
		provider: h.provider,
	}
}

// FrameTracker records the simulation frame so log lines can carry it.
// Safe for concurrent use.
type FrameTracker struct {
	frame   atomic.Uint64
	mission atomic.Pointer[string]
}

// SetFrame stores the current frame number.
func (t *FrameTracker) SetFrame(n uint64) {
	t.frame.Store(n)
}

// SetMission stores the mission name.
func (t *FrameTracker) SetMission(name string) {
	t.mission.Store(&name)
}

// Provider returns a ContextProvider reading the tracker.
func (t *FrameTracker) Provider() ContextProvider {
	return func() []slog.Attr {
		attrs := []slog.Attr{slog.Uint64("frame", t.frame.Load())}
		if m := t.mission.Load(); m != nil {
			attrs = append(attrs, slog.String("mission", *m))
		}
		return attrs
	}
}
