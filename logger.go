package stowage

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with stowage-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithBackend adds a backend field to the logger.
func (l *Logger) WithBackend(backend string) *Logger {
	return &Logger{
		Logger: l.Logger.With("backend", backend),
	}
}

// WithDataset adds a dataset ID field to the logger.
func (l *Logger) WithDataset(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", id),
	}
}

// WithAddress adds a storage address field to the logger.
func (l *Logger) WithAddress(addr string) *Logger {
	return &Logger{
		Logger: l.Logger.With("address", addr),
	}
}

// LogOpen logs backend construction.
func (l *Logger) LogOpen(ctx context.Context, backend, root string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"backend", backend,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "storage opened",
			"backend", backend,
			"root", root,
		)
	}
}

// LogFetchFile logs a fetch file operation.
func (l *Logger) LogFetchFile(ctx context.Context, addr, localPath string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fetch file failed",
			"address", addr,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fetch file completed",
			"address", addr,
			"local_path", localPath,
		)
	}
}

// LogPutObject logs an object upload operation.
func (l *Logger) LogPutObject(ctx context.Context, addr string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put object failed",
			"address", addr,
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "put object completed",
			"address", addr,
			"size", size,
		)
	}
}

// LogPutFile logs a file upload operation.
func (l *Logger) LogPutFile(ctx context.Context, localPath, addr string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put file failed",
			"local_path", localPath,
			"address", addr,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "put file completed",
			"local_path", localPath,
			"address", addr,
		)
	}
}

// LogCheckExists logs an existence check.
func (l *Logger) LogCheckExists(ctx context.Context, addr string, exists bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "check exists failed",
			"address", addr,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "check exists completed",
			"address", addr,
			"exists", exists,
		)
	}
}

// LogWriterFlush logs a dataset writer flush.
func (l *Logger) LogWriterFlush(ctx context.Context, dataset string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "writer flush failed",
			"dataset", dataset,
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "writer flush completed",
			"dataset", dataset,
			"count", count,
		)
	}
}
