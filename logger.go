package subsurf

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/subsurf/container"
)

// Logger wraps slog.Logger with subsurf-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithObject adds the object name and container position.
func (l *Logger) WithObject(name string, position int) *Logger {
	return &Logger{
		Logger: l.Logger.With("object", name, "position", position),
	}
}

// WithStore adds the blob key prefix an export writes to.
func (l *Logger) WithStore(prefix string) *Logger {
	return &Logger{
		Logger: l.Logger.With("prefix", prefix),
	}
}

// LogObject logs the decoding of one container object.
func (l *Logger) LogObject(ctx context.Context, name string, position, vertices int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "object decode failed",
			"object", name,
			"position", position,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "object decoded",
			"object", name,
			"position", position,
			"vertices", vertices,
		)
	}
}

// LogSkip logs an object dropped by the topology filter.
func (l *Logger) LogSkip(ctx context.Context, ev container.SkipEvent) {
	l.DebugContext(ctx, "object skipped",
		"object", ev.Name,
		"position", ev.Position,
		"topology", string(ev.Topology),
	)
}

// LogExport logs one artifact write.
func (l *Logger) LogExport(ctx context.Context, key string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact export failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "artifact exported",
			"key", key,
			"bytes", size,
		)
	}
}

// LogExportSummary logs the outcome of a whole export.
func (l *Logger) LogExportSummary(ctx context.Context, exported, skipped int, err error) {
	if err != nil {
		l.WarnContext(ctx, "export stopped",
			"exported", exported,
			"skipped", skipped,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "export completed",
			"exported", exported,
			"skipped", skipped,
		)
	}
}
