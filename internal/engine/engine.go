package engine

import (
	"path/filepath"
	"sync"

	"github.com/39aldo39/libdecsync-go/internal/fsutil"
	"github.com/39aldo39/libdecsync-go/internal/jsonvalue"
	"github.com/39aldo39/libdecsync-go/internal/logio"
	"github.com/39aldo39/libdecsync-go/internal/pathcodec"
)

// Listener is notified when entries at a path it matches converge. The
// listener set is closed over at Engine construction rather than
// dynamically registered, so variant behavior (subdir vs. exact-path
// matching) is expressed by the MatchesPath/OnEntriesUpdate pair instead.
type Listener interface {
	MatchesPath(path []string) bool
	OnEntriesUpdate(path []string, entries []logio.Entry, extra any)
}

// Engine is the convergence engine for one DecsyncDir/ownAppId pair. Every
// public method that writes serializes through a single mutex, since watcher
// callbacks and caller-initiated operations must never interleave while
// ingesting entries or rewriting a stored view. The read-only
// GetStoredStaticValue method does not take the mutex.
type Engine struct {
	dir      string
	ownAppId string
	logger   Logger

	mu        sync.Mutex
	listeners []Listener

	// SyncCompleteFunc, if set, is invoked at the end of
	// ExecuteAllNewEntries with the same extra value that was passed in.
	// The root package's change dispatcher also invokes it after each
	// change it ingests.
	SyncCompleteFunc func(extra any)
}

// New constructs an Engine rooted at dir for ownAppId. logger may be nil,
// in which case internal errors are discarded.
func New(dir, ownAppId string, logger Logger, listeners []Listener) *Engine {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Engine{
		dir:       dir,
		ownAppId:  ownAppId,
		logger:    logger,
		listeners: listeners,
	}
}

// SetEntriesForPath appends entries to the own new-entries log, bumps the
// sequence counter on every ancestor directory, then merges the same
// entries into the own stored view.
func (e *Engine) SetEntriesForPath(path []string, entries []logio.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pathEnc := pathcodec.Encode(path)
	ownEnc := pathcodec.EncodeSegment(e.ownAppId)
	newFile := filepath.Join(e.dir, "new-entries", ownEnc, pathEnc)
	storedFile := filepath.Join(e.dir, "stored-entries", ownEnc, pathEnc)

	if err := logio.AppendEntries(newFile, entries); err != nil {
		e.logger.Error("appending new entries", Field{"path", path}, Field{"error", err})
		return
	}

	root := newEntriesRoot(e.dir, e.ownAppId)
	if err := logio.BumpSequenceChain(root, filepath.Dir(newFile)); err != nil {
		e.logger.Error("bumping sequence chain", Field{"path", path}, Field{"error", err})
	}

	loc := Location{Path: path, NewFile: newFile, StoredFile: storedFile}
	if _, err := updateStoredEntries(loc, entries); err != nil {
		e.logger.Error("updating own stored view", Field{"path", path}, Field{"error", err})
	}
}

// ExecuteEntriesLocation ingests loc's unread tail, merges it into loc's
// stored view (if any), and dispatches the surviving entries to the first
// matching listener.
func (e *Engine) ExecuteEntriesLocation(loc Location, extra any, keyPred, valuePred func(jsonvalue.Value) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executeEntriesLocationLocked(loc, extra, keyPred, valuePred)
}

func (e *Engine) executeEntriesLocationLocked(loc Location, extra any, keyPred, valuePred func(jsonvalue.Value) bool) {
	var readBytes int64
	if loc.ReadBytesFile != "" {
		readBytes = logio.ReadCursor(loc.ReadBytesFile)
	}

	size, err := logio.Size(loc.NewFile)
	if err != nil {
		e.logger.Error("stat new entries file", Field{"file", loc.NewFile}, Field{"error", err})
		return
	}
	if readBytes >= size {
		return
	}

	// Cursor-before-read: durably record how far we're about to read before
	// parsing the tail, biasing any crash toward skipping rather than
	// duplicating entries on the next pass.
	if loc.ReadBytesFile != "" {
		if err := logio.WriteCursor(loc.ReadBytesFile, size); err != nil {
			e.logger.Error("writing read cursor", Field{"file", loc.ReadBytesFile}, Field{"error", err})
		}
	}

	tail, err := logio.ReadRange(loc.NewFile, readBytes, size)
	if err != nil {
		e.logger.Error("reading new entries tail", Field{"file", loc.NewFile}, Field{"error", err})
		return
	}

	var filtered []logio.Entry
	for _, entry := range tail {
		if keyPred != nil && !keyPred(entry.Key) {
			continue
		}
		if valuePred != nil && !valuePred(entry.Value) {
			continue
		}
		filtered = append(filtered, entry)
	}

	grouped := groupByKeyLatest(filtered)

	merged, err := updateStoredEntries(loc, grouped)
	if err != nil {
		e.logger.Error("merging stored entries", Field{"path", loc.Path}, Field{"error", err})
		return
	}
	if len(merged) == 0 {
		return
	}

	for _, l := range e.listeners {
		if l.MatchesPath(loc.Path) {
			l.OnEntriesUpdate(loc.Path, merged, extra)
			return
		}
	}
	e.logger.Error("no listener matches path", Field{"path", loc.Path})
}

// ExecuteAllNewEntries ingests every peer's unread new-entries tail, then
// invokes SyncCompleteFunc.
func (e *Engine) ExecuteAllNewEntries(extra any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	newEntriesDir := filepath.Join(e.dir, "new-entries")
	readBytesSrc := readBytesRoot(e.dir, e.ownAppId)

	paths, warnings := logio.ListFilesRecursive(newEntriesDir, logio.ListOptions{
		ReadBytesSrc: readBytesSrc,
		PathPred: func(path []string) bool {
			return path[0] != e.ownAppId
		},
	})
	for _, w := range warnings {
		e.logger.Warn(w)
	}

	for _, p := range paths {
		if len(p) < 2 {
			continue
		}
		peerAppId, path := p[0], p[1:]
		loc := NewEntriesLocation(e.dir, e.ownAppId, peerAppId, path)
		e.executeEntriesLocationLocked(loc, extra, nil, nil)
	}

	if e.SyncCompleteFunc != nil {
		e.SyncCompleteFunc(extra)
	}
}

// ExecuteStoredEntries replays the already-materialized stored view under
// executePath to listeners, e.g. to populate newly-registered listeners at
// startup.
func (e *Engine) ExecuteStoredEntries(executePath []string, extra any, keyPred, valuePred func(jsonvalue.Value) bool, pathPred func([]string) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	scanDir := filepath.Join(storedEntriesRoot(e.dir, e.ownAppId), pathcodec.Encode(executePath))

	leaves, warnings := logio.ListFilesRecursive(scanDir, logio.ListOptions{PathPred: pathPred})
	for _, w := range warnings {
		e.logger.Warn(w)
	}

	for _, leaf := range leaves {
		full := append(append([]string{}, executePath...), leaf...)
		loc := StoredEntriesLocation(e.dir, e.ownAppId, full)
		e.executeEntriesLocationLocked(loc, extra, keyPred, valuePred)
	}
}

// InitStoredEntries is for a fresh install: it finds the peer whose stored
// view is most up to date and adopts it wholesale.
func (e *Engine) InitStoredEntries() {
	e.mu.Lock()
	defer e.mu.Unlock()

	storedRoot := filepath.Join(e.dir, "stored-entries")
	appDirs, err := fsutil.ListDirs(storedRoot)
	if err != nil {
		e.logger.Error("listing stored-entries app directories", Field{"error", err})
		return
	}

	var bestAppId, bestDateTime string
	found := false

	for _, encAppId := range appDirs {
		appId, err := pathcodec.DecodeSegment(encAppId)
		if err != nil {
			e.logger.Warn("undecodable app id under stored-entries", Field{"name", encAppId})
			continue
		}

		appDir := filepath.Join(storedRoot, encAppId)
		leaves, warnings := logio.ListFilesRecursive(appDir, logio.ListOptions{})
		for _, w := range warnings {
			e.logger.Warn(w)
		}

		for _, leaf := range leaves {
			file := filepath.Join(appDir, pathcodec.Encode(leaf))
			entries, err := logio.ReadAllEntries(file)
			if err != nil {
				e.logger.Error("reading stored entries", Field{"file", file}, Field{"error", err})
				continue
			}
			for _, entry := range entries {
				newer := !found || entry.DateTime > bestDateTime
				tie := found && entry.DateTime == bestDateTime && appId == e.ownAppId
				if newer || tie {
					bestDateTime = entry.DateTime
					bestAppId = appId
					found = true
				}
			}
		}
	}

	if !found || bestAppId == e.ownAppId {
		return
	}

	peerEnc := pathcodec.EncodeSegment(bestAppId)
	ownEnc := pathcodec.EncodeSegment(e.ownAppId)

	if err := fsutil.CopyDir(filepath.Join(storedRoot, ownEnc), filepath.Join(storedRoot, peerEnc)); err != nil {
		e.logger.Error("copying stored-entries for bootstrap", Field{"peer", bestAppId}, Field{"error", err})
		return
	}

	readBytesDir := filepath.Join(e.dir, "read-bytes")
	srcReadBytes := filepath.Join(readBytesDir, peerEnc)
	if fsutil.DirExists(srcReadBytes) {
		if err := fsutil.CopyDir(filepath.Join(readBytesDir, ownEnc), srcReadBytes); err != nil {
			e.logger.Error("copying read-bytes for bootstrap", Field{"peer", bestAppId}, Field{"error", err})
		}
	}

	peerNewDir := filepath.Join(e.dir, "new-entries", peerEnc)
	leaves, warnings := logio.ListFilesRecursive(peerNewDir, logio.ListOptions{})
	for _, w := range warnings {
		e.logger.Warn(w)
	}
	for _, leaf := range leaves {
		leafEnc := pathcodec.Encode(leaf)
		size, err := logio.Size(filepath.Join(peerNewDir, leafEnc))
		if err != nil {
			e.logger.Error("stat peer new-entries file", Field{"peer", bestAppId}, Field{"error", err})
			continue
		}
		cursorFile := filepath.Join(readBytesDir, ownEnc, peerEnc, leafEnc)
		if err := logio.WriteCursor(cursorFile, size); err != nil {
			e.logger.Error("writing bootstrap cursor", Field{"file", cursorFile}, Field{"error", err})
		}
	}
}

// GetStoredStaticValue looks up key across every peer's stored view for
// this engine's own DecsyncDir.
func (e *Engine) GetStoredStaticValue(path []string, key jsonvalue.Value) (jsonvalue.Value, bool) {
	return GetStoredStaticValue(e.dir, path, key, e.logger)
}

// GetStoredStaticValue scans every stored-entries/<appId>/<path> file
// (ignoring hidden top-level app id directories) for lines matching key,
// and returns the value of the one with the lexicographically greatest
// datetime across all app ids. It takes no cursor and does not require an
// Engine: it is a simple point query, used e.g. to check a collection's
// "deleted" flag.
func GetStoredStaticValue(dir string, path []string, key jsonvalue.Value, logger Logger) (jsonvalue.Value, bool) {
	if logger == nil {
		logger = NopLogger{}
	}

	storedRoot := filepath.Join(dir, "stored-entries")
	appDirs, err := fsutil.ListDirs(storedRoot)
	if err != nil {
		return jsonvalue.Value{}, false
	}
	pathEnc := pathcodec.Encode(path)

	var best jsonvalue.Value
	var bestDateTime string
	found := false

	for _, encAppId := range appDirs {
		file := filepath.Join(storedRoot, encAppId, pathEnc)
		entries, err := logio.ReadAllEntries(file)
		if err != nil {
			logger.Error("reading stored entries", Field{"file", file}, Field{"error", err})
			continue
		}
		for _, entry := range entries {
			if !jsonvalue.Equal(entry.Key, key) {
				continue
			}
			if !found || entry.DateTime > bestDateTime {
				bestDateTime = entry.DateTime
				best = entry.Value
				found = true
			}
		}
	}
	return best, found
}

// groupByKeyLatest groups entries by structural key equality and keeps,
// for each group, only the entry with the lexicographically greatest
// datetime.
func groupByKeyLatest(entries []logio.Entry) []logio.Entry {
	var groups []logio.Entry
	for _, e := range entries {
		matched := false
		for i, g := range groups {
			if jsonvalue.Equal(g.Key, e.Key) {
				if e.DateTime > g.DateTime {
					groups[i] = e
				}
				matched = true
				break
			}
		}
		if !matched {
			groups = append(groups, e)
		}
	}
	return groups
}
