// Package logging provides structured logging configuration using log/slog.
//
// The logger built at startup travels through the pipeline in the context,
// so every import routine logs with its own table key and run id without
// touching shared state.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Setup builds a logger for the given level and format, installs it as the
// slog default and returns it.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger carried by ctx, or the slog default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithFields returns a context whose logger carries additional fields.
//
// Usage:
//
//	ctx = logging.WithFields(ctx, "table", key)
//	logging.FromContext(ctx).Info("import started")
func WithFields(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// WithRun tags the context logger with a fresh run id and returns it.
func WithRun(ctx context.Context) (context.Context, uuid.UUID) {
	id := uuid.New()
	return WithFields(ctx, "run_id", id.String()), id
}
