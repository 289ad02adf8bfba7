package logger

import (
	"context"
	"log/slog"
)

// CIHandler stamps every record with the CI provider the process runs under,
// so provisioning output from parallel CI jobs can be told apart.
type CIHandler struct {
	handler  slog.Handler
	provider string
}

// NewCIHandler wraps h, adding a ci_provider attribute to each record.
func NewCIHandler(h slog.Handler, provider string) *CIHandler {
	return &CIHandler{handler: h, provider: provider}
}

// Enabled implements slog.Handler.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements slog.Handler.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{handler: h.handler.WithAttrs(attrs), provider: h.provider}
}

// WithGroup implements slog.Handler.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{handler: h.handler.WithGroup(name), provider: h.provider}
}

// Handle implements slog.Handler.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()
	enhanced.AddAttrs(slog.String("ci_provider", h.provider))
	return h.handler.Handle(ctx, enhanced)
}
