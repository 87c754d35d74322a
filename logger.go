package decsync

import (
	"log/slog"
	"os"
)

// Field is a single structured logging attribute. It mirrors
// internal/engine.Field field for field, so adapters.go can hand a caller's
// Logger to an Engine through a thin field-copying adapter.
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the interface DecSync reports internal, non-fatal errors to.
// The public API never returns these errors: every write, read, merge or
// dispatch failure is logged here and the affected path is simply skipped,
// to be retried on a later pass.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// slogLogger is the default Logger, backed by log/slog.
type slogLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger returns a Logger that writes structured log lines to
// stderr via log/slog.
func NewDefaultLogger() Logger {
	return &slogLogger{
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "decsync"),
	}
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, toAttrs(fields)...) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, toAttrs(fields)...) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, toAttrs(fields)...) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, toAttrs(fields)...) }

func toAttrs(fields []Field) []any {
	attrs := make([]any, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	return attrs
}

// noopLogger discards everything. Used as the default when a caller doesn't
// supply a Logger, matching the fire-and-forget error model.
type noopLogger struct{}

// NewNoopLogger returns a Logger that discards all messages.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}
