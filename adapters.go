package decsync

import (
	"github.com/39aldo39/libdecsync-go/internal/engine"
	"github.com/39aldo39/libdecsync-go/internal/watcher"
)

// asEngineLogger wraps l so it satisfies internal/engine.Logger. The two
// interfaces are structurally identical (Debug/Info/Warn/Error over a
// Field{Key, Value}), but the Field types live in different packages so
// Engine never has to import the root package.
func asEngineLogger(l Logger) engine.Logger {
	return engineAdapter{l}
}

type engineAdapter struct{ l Logger }

func (a engineAdapter) Debug(msg string, fields ...engine.Field) { a.l.Debug(msg, fromEngineFields(fields)...) }
func (a engineAdapter) Info(msg string, fields ...engine.Field)  { a.l.Info(msg, fromEngineFields(fields)...) }
func (a engineAdapter) Warn(msg string, fields ...engine.Field)  { a.l.Warn(msg, fromEngineFields(fields)...) }
func (a engineAdapter) Error(msg string, fields ...engine.Field) { a.l.Error(msg, fromEngineFields(fields)...) }

func fromEngineFields(fields []engine.Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Key: f.Key, Value: f.Value}
	}
	return out
}

// watcherLogger adapts a public Logger to internal/watcher.Logger, which
// only needs a single Warn(msg, err) method.
type watcherLogger struct{ l Logger }

func asWatcherLogger(l Logger) watcher.Logger {
	return watcherLogger{l}
}

func (a watcherLogger) Warn(msg string, err error) {
	a.l.Warn(msg, Field{"error", err})
}
