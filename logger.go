package slabkit

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pool-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithPool adds a pool name field to the logger.
func (l *Logger) WithPool(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pool", name),
	}
}

// WithClass adds a size class field to the logger.
func (l *Logger) WithClass(class int) *Logger {
	return &Logger{
		Logger: l.Logger.With("class", class),
	}
}

// LogAlloc logs an allocation. Successful allocations are logged at debug level.
func (l *Logger) LogAlloc(ctx context.Context, size, class int, err error) {
	if err != nil {
		l.DebugContext(ctx, "alloc failed",
			"size", size,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "alloc completed",
		"size", size,
		"class", class,
	)
}

// LogFree logs a failed free. Frees that succeed are not logged.
func (l *Logger) LogFree(ctx context.Context, class int, err error) {
	if err == nil {
		return
	}
	l.WarnContext(ctx, "free rejected",
		"class", class,
		"error", err,
	)
}

// LogExhausted logs a class running out of slots.
func (l *Logger) LogExhausted(ctx context.Context, size, class int) {
	l.WarnContext(ctx, "size class exhausted",
		"size", size,
		"class", class,
	)
}

// LogRegion logs the region a pool was built over.
func (l *Logger) LogRegion(ctx context.Context, bytes, classes, capacity int) {
	l.InfoContext(ctx, "region mapped",
		"bytes", bytes,
		"classes", classes,
		"capacity", capacity,
	)
}

// LogSnapshot logs a snapshot.
func (l *Logger) LogSnapshot(ctx context.Context, codec string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"codec", codec,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot written",
		"codec", codec,
		"bytes", bytes,
	)
}

// LogClose logs a pool shutdown with the slots still in use.
func (l *Logger) LogClose(ctx context.Context, leaked uint64, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "close failed",
			"error", err,
		)
	case leaked > 0:
		l.WarnContext(ctx, "pool closed with live slots",
			"live", leaked,
		)
	default:
		l.InfoContext(ctx, "pool closed")
	}
}
