package simring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with simring-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithQuery adds the query text to the logger.
func (l *Logger) WithQuery(q string) *Logger {
	return &Logger{
		Logger: l.Logger.With("query", q),
	}
}

// WithK adds a k (neighbour rank) field to the logger.
func (l *Logger) WithK(k uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogQuery logs a query evaluation.
func (l *Logger) LogQuery(ctx context.Context, vars, patterns, results int, status Status, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"variables", vars,
			"patterns", patterns,
			"error", err,
		)
		return
	}

	l.DebugContext(ctx, "query completed",
		"variables", vars,
		"patterns", patterns,
		"results", results,
		"status", status.String(),
		"elapsed", elapsed,
	)
}

// LogBuild logs index construction.
func (l *Logger) LogBuild(ctx context.Context, triples, nodes, maxK uint64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"triples", triples,
			"nodes", nodes,
			"error", err,
		)
		return
	}

	l.InfoContext(ctx, "index built",
		"triples", triples,
		"nodes", nodes,
		"max_k", maxK,
		"elapsed", elapsed,
	)
}

// LogSnapshot logs a snapshot save or commit.
func (l *Logger) LogSnapshot(ctx context.Context, name string, size int64, committed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
		return
	}

	l.InfoContext(ctx, "snapshot saved",
		"name", name,
		"bytes", size,
		"committed", committed,
	)
}

// LogLoad logs a snapshot load.
func (l *Logger) LogLoad(ctx context.Context, name string, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
		return
	}

	l.InfoContext(ctx, "snapshot loaded",
		"name", name,
		"elapsed", elapsed,
	)
}
