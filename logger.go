package voxpipe

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/voxpipe/geom"
)

// Logger wraps slog.Logger with voxpipe-specific context.
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
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPipeline adds a pipeline signature field to the logger.
func (l *Logger) WithPipeline(sig string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pipeline", sig),
	}
}

// WithShape adds a shape field to the logger.
func (l *Logger) WithShape(shape geom.Shape) *Logger {
	return &Logger{
		Logger: l.Logger.With("shape", shape.String()),
	}
}

// LogCompress logs a compress operation.
func (l *Logger) LogCompress(ctx context.Context, rawBytes, encodedBytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compress failed",
			"raw_bytes", rawBytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "compress completed",
			"raw_bytes", rawBytes,
			"encoded_bytes", encodedBytes,
		)
	}
}

// LogDecompress logs a decompress operation.
func (l *Logger) LogDecompress(ctx context.Context, encodedBytes, rawBytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decompress failed",
			"encoded_bytes", encodedBytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "decompress completed",
			"encoded_bytes", encodedBytes,
			"raw_bytes", rawBytes,
		)
	}
}

// LogStore logs a container write.
func (l *Logger) LogStore(ctx context.Context, name string, storedBytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "store failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "store completed",
			"name", name,
			"stored_bytes", storedBytes,
		)
	}
}

// LogLoad logs a container read.
func (l *Logger) LogLoad(ctx context.Context, name string, rawBytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"name", name,
			"raw_bytes", rawBytes,
		)
	}
}
