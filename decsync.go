/*
Package decsync implements DecSync, a library for decentralized,
file-system-mediated synchronization of key/value mappings. Multiple
application instances, possibly on different devices sharing a directory
through any file-sync transport, cooperatively converge on shared state
without a server or network traffic of their own: each instance appends to
its own log, and reads every other instance's log to catch up.

Quick start:

	d, err := decsync.Open("/data/decsync/contacts/work", decsync.GetAppId("pixel-7", "myapp"),
		[]decsync.Listener{decsync.NewSubdirListener(nil, func(path []string, e decsync.Entry, extra any) {
			// handle a converged entry
		})},
	)
	if err != nil {
		log.Fatal(err)
	}
	d.SetEntry([]string{"info"}, decsync.NewStringValue("name"), decsync.NewStringValue("Work"))
	d.ExecuteAllNewEntries(nil)

Apart from Open and InitObserver, nothing in the public API returns an error:
per the fire-and-forget error model, internal failures are logged and the
affected operation is simply skipped, to be retried on a later pass.
*/
package decsync

import (
	"path/filepath"
	"time"

	"github.com/39aldo39/libdecsync-go/internal/engine"
	"github.com/39aldo39/libdecsync-go/internal/fsutil"
	"github.com/39aldo39/libdecsync-go/internal/pathcodec"
	"github.com/39aldo39/libdecsync-go/internal/watcher"
)

// DecsyncDir is one open sync namespace: a directory on disk plus the
// engine that converges it and the watcher dispatching peers' writes to
// listeners.
type DecsyncDir struct {
	dir      string
	ownAppId string
	logger   Logger
	engine   *engine.Engine
	watcher  Watcher
}

// Open opens or creates a DecsyncDir rooted at dir for ownAppId, with the
// given listeners. The listener set is closed over here — registering
// additional listeners later requires a new DecsyncDir.
func Open(dir, ownAppId string, listeners []Listener, opts ...DecsyncOption) (*DecsyncDir, error) {
	if dir == "" {
		return nil, ErrDirRequired
	}
	if ownAppId == "" {
		return nil, ErrAppIdRequired
	}

	o := &decsyncOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = NewNoopLogger()
	}

	absDir, err := fsutil.AbsPath(dir)
	if err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(absDir, 0o755); err != nil {
		return nil, err
	}

	eng := engine.New(absDir, ownAppId, asEngineLogger(o.logger), listeners)

	w := o.watcher
	if w == nil {
		w = watcher.New(asWatcherLogger(o.logger))
	}

	return &DecsyncDir{
		dir:      absDir,
		ownAppId: ownAppId,
		logger:   o.logger,
		engine:   eng,
		watcher:  w,
	}, nil
}

// MustOpen is like Open but panics on error.
func MustOpen(dir, ownAppId string, listeners []Listener, opts ...DecsyncOption) *DecsyncDir {
	d, err := Open(dir, ownAppId, listeners, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Dir returns the absolute path of this DecsyncDir.
func (d *DecsyncDir) Dir() string { return d.dir }

// OwnAppId returns the writer identity this DecsyncDir writes under.
func (d *DecsyncDir) OwnAppId() string { return d.ownAppId }

// SetSyncCompleteFunc registers a callback invoked at the end of every
// ExecuteAllNewEntries pass, and, once InitObserver is running, after each
// single file the Change Dispatcher ingests.
func (d *DecsyncDir) SetSyncCompleteFunc(fn func(extra any)) {
	d.engine.SyncCompleteFunc = fn
}

// SetEntry implements the common case of SetEntriesForPath with a single
// entry: writes (key, value) at path, timestamped now at second
// resolution.
func (d *DecsyncDir) SetEntry(path []string, key, value Value) {
	d.SetEntries(path, []Entry{{DateTime: nowDateTime(), Key: key, Value: value}})
}

// SetEntries appends entries to the own new-entries log, bumps the
// sequence chain, and merges them into the own stored view.
func (d *DecsyncDir) SetEntries(path []string, entries []Entry) {
	d.engine.SetEntriesForPath(path, entries)
}

// ExecuteAllNewEntries ingests every peer's unread new-entries tail and
// dispatches converged entries to listeners.
func (d *DecsyncDir) ExecuteAllNewEntries(extra any) {
	d.engine.ExecuteAllNewEntries(extra)
}

// ExecuteStoredEntries replays the already-materialized stored view under
// executePath to listeners, typically used to populate newly-registered
// listeners at startup.
func (d *DecsyncDir) ExecuteStoredEntries(executePath []string, extra any, keyPred, valuePred func(Value) bool, pathPred func([]string) bool) {
	d.engine.ExecuteStoredEntries(executePath, extra, keyPred, valuePred, pathPred)
}

// InitStoredEntries is for a fresh install: it adopts the freshest peer's
// stored view wholesale as a bootstrap shortcut.
func (d *DecsyncDir) InitStoredEntries() {
	d.engine.InitStoredEntries()
}

// GetStoredStaticValue is a point query into this DecsyncDir's converged
// stored view, with no cursor side effects.
func (d *DecsyncDir) GetStoredStaticValue(path []string, key Value) (Value, bool) {
	return d.engine.GetStoredStaticValue(path, key)
}

// InitObserver is the change dispatcher: it ensures new-entries/ exists,
// then starts the recursive watcher, mapping every filesystem event under
// new-entries/ to ExecuteEntriesLocation followed by SyncCompleteFunc(extra).
// It returns ErrWatcherUnavailable (after logging) if the watch target is
// missing — the DecsyncDir remains usable via explicit ExecuteAllNewEntries
// polling in that case.
func (d *DecsyncDir) InitObserver(extra any) error {
	newEntriesDir := filepath.Join(d.dir, "new-entries")
	if err := fsutil.EnsureDir(newEntriesDir, 0o755); err != nil {
		d.logger.Error("creating new-entries directory", Field{"error", err})
		return ErrWatcherUnavailable
	}

	err := d.watcher.Watch(newEntriesDir, func(root, rel string) {
		d.dispatchChange(rel, extra)
	})
	if err != nil {
		d.logger.Warn("starting recursive watcher", Field{"error", err})
		return ErrWatcherUnavailable
	}
	return nil
}

// StopObserver stops the watcher started by InitObserver, if any.
func (d *DecsyncDir) StopObserver() {
	if d.watcher != nil {
		d.watcher.Stop()
	}
}

// dispatchChange maps one filesystem event under new-entries/, relative
// path rel, through the filter/decode/dispatch steps the change dispatcher
// defines: skip empty or hidden-leaf paths, decode each segment, skip the
// own app id, confirm the file still exists, then ingest and notify.
func (d *DecsyncDir) dispatchChange(rel string, extra any) {
	segs := splitNonEmpty(rel)
	if len(segs) == 0 {
		return
	}
	last := segs[len(segs)-1]
	if len(last) > 0 && last[0] == '.' {
		return
	}

	decoded := make([]string, len(segs))
	for i, seg := range segs {
		d2, err := pathcodec.DecodeSegment(seg)
		if err != nil {
			d.logger.Warn("undecodable path segment in change event", Field{"segment", seg})
			return
		}
		decoded[i] = d2
	}

	appId, path := decoded[0], decoded[1:]
	if appId == d.ownAppId {
		return
	}

	file := filepath.Join(d.dir, "new-entries", pathcodec.EncodeSegment(appId), pathcodec.Encode(path))
	if !fsutil.FileExists(file) {
		return
	}

	loc := engine.NewEntriesLocation(d.dir, d.ownAppId, appId, path)
	d.engine.ExecuteEntriesLocation(loc, extra, nil, nil)
	if d.engine.SyncCompleteFunc != nil {
		d.engine.SyncCompleteFunc(extra)
	}
}

func splitNonEmpty(rel string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(rel); i++ {
		if i == len(rel) || rel[i] == '/' {
			if i > start {
				out = append(out, rel[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func nowDateTime() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}
