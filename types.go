package decsync

import (
	"github.com/39aldo39/libdecsync-go/internal/engine"
	"github.com/39aldo39/libdecsync-go/internal/jsonvalue"
	"github.com/39aldo39/libdecsync-go/internal/logio"
	"github.com/39aldo39/libdecsync-go/internal/watcher"
)

// Value is a JSON value (null, bool, number, string, array or object) with
// structural equality, used for both Entry keys and values.
type Value = jsonvalue.Value

// Entry is a single timestamped assignment: a { datetime, key, value }
// triple, the unit of synchronization.
type Entry = logio.Entry

// Path addresses a map within a sync namespace tree: an ordered sequence of
// Unicode strings, URL-encoded one segment at a time on disk.
type Path = []string

// Listener receives converged entries for the paths it matches. The
// listener set is closed over at DecsyncDir construction — Listener is
// polymorphic over MatchesPath/OnEntriesUpdate rather than supporting
// dynamic registration.
type Listener = engine.Listener

// Watcher recursively watches a directory and reports changes through a
// Callback. Aliased from internal/watcher so a caller implementing its own
// watcher (their own inotify/FSEvents/ReadDirectoryChangesW wrapper) can
// satisfy the interface without reaching into an internal package.
type Watcher = watcher.Watcher

// Callback is the function signature a Watcher invokes on a filesystem
// change: the watched root and the slash-separated path of the changed
// file or directory, relative to root.
type Callback = watcher.Callback

// Value constructors and equality, re-exported so callers never need to
// import internal/jsonvalue directly.
var (
	NullValue      = jsonvalue.Null
	NewBoolValue   = jsonvalue.NewBool
	NewStringValue = jsonvalue.NewString
	NewIntValue    = jsonvalue.NewInt
	NewFloatValue  = jsonvalue.NewFloat
	NewArrayValue  = jsonvalue.NewArray
	NewObjectValue = jsonvalue.NewObject
	ParseValue     = jsonvalue.Parse
	ValuesEqual    = jsonvalue.Equal
)
