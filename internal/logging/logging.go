// Package logging builds the process logger on [log/slog] and carries
// request-scoped children through context.
//
// Environment variables:
//
//	LOG_LEVEL  = debug | info | warn | error  (default: info)
//	LOG_FORMAT = json | text                  (default: json)
//	LOG_SOURCE = true                         adds file:line to each record
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type ctxKey struct{}

// New returns the stderr logger configured from the environment.
func New() *slog.Logger {
	source, _ := strconv.ParseBool(os.Getenv("LOG_SOURCE"))
	return build(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), source)
}

// NewWriter returns a logger writing to w. format "text" selects the text
// handler; anything else selects JSON.
func NewWriter(w io.Writer, level, format string) *slog.Logger {
	return build(w, level, format, false)
}

func build(w io.Writer, level, format string, source bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: source}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// With derives a child of the logger in ctx with args attached and returns
// it along with a context carrying it.
func With(ctx context.Context, args ...any) (context.Context, *slog.Logger) {
	l := FromContext(ctx).With(args...)
	return WithLogger(ctx, l), l
}

// FromContext returns the logger stored in ctx, or [slog.Default].
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
