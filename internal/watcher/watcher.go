// Package watcher implements the recursive directory watcher the change
// dispatcher uses to learn about a peer's writes without polling. Watcher
// is meant as a swappable collaborator — callers with their own inotify/
// FSEvents/ReadDirectoryChangesW wrapper supply their own Watcher (aliased
// from the root package) and never touch this package directly.
//
// The registration bookkeeping (add a watch when a subdirectory appears,
// drop it when the directory disappears, dispatch the triggering event
// either way) is modeled on original_source's FolderObserver.java, which
// keeps one FileObserver per directory with a list of child observers.
// fsnotify.Watcher already watches an arbitrary number of paths from one
// handle, so the child list collapses here into a flat registry keyed by
// absolute path rather than a tree of per-directory objects — the
// add-before-dispatch / remove-before-dispatch ordering FolderObserver.java
// relies on is preserved exactly.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Callback is invoked with the watched root and the slash-separated path of
// the changed file or directory, relative to root.
type Callback func(root, relativePath string)

// Watcher recursively watches root and reports changes to a Callback.
type Watcher interface {
	Watch(root string, cb Callback) error
	Stop()
}

// RecursiveWatcher is the fsnotify-backed default Watcher.
type RecursiveWatcher struct {
	logger Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	watched  map[string]string // absolute dir path -> relative path from root
	root     string
	cb       Callback
	cancel   context.CancelFunc
	stopped  bool
}

// Logger is the minimal logging surface RecursiveWatcher needs.
type Logger interface {
	Warn(msg string, err error)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Warn(string, error) {}

// New constructs a RecursiveWatcher. logger may be nil.
func New(logger Logger) *RecursiveWatcher {
	if logger == nil {
		logger = NopLogger{}
	}
	return &RecursiveWatcher{logger: logger}
}

// Watch starts watching root recursively, delivering events to cb. It
// fails if root does not exist; callers are expected to fall back to
// explicit ExecuteAllNewEntries polling when this returns an error.
func (w *RecursiveWatcher) Watch(root string, cb Callback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating fsnotify watcher")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		fsw.Close()
		return errors.Wrapf(err, "resolving %s", root)
	}
	if _, err := os.Stat(absRoot); err != nil {
		fsw.Close()
		return errors.Wrapf(err, "watch target %s", absRoot)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.root = absRoot
	w.cb = cb
	w.watched = make(map[string]string)
	w.mu.Unlock()

	if err := w.addTree(absRoot); err != nil {
		fsw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

// Stop stops watching and releases the underlying fsnotify handle.
func (w *RecursiveWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	if w.cancel != nil {
		w.cancel()
	}
	if w.fsw != nil {
		w.fsw.Close()
	}
}

// addTree registers dir and every subdirectory under it with the
// underlying fsnotify watcher.
func (w *RecursiveWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("walking directory tree", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		w.addOne(path)
		return nil
	})
}

func (w *RecursiveWatcher) addOne(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watched[dir]; ok {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("adding watch for "+dir, err)
		return
	}
	rel, err := filepath.Rel(w.root, dir)
	if err != nil {
		rel = dir
	}
	if rel == "." {
		rel = ""
	}
	w.watched[dir] = filepath.ToSlash(rel)
}

func (w *RecursiveWatcher) removeOne(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watched[dir]; !ok {
		return
	}
	delete(w.watched, dir)
	_ = w.fsw.Remove(dir) // already gone on disk; best-effort
}

func (w *RecursiveWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", err)
		}
	}
}

func (w *RecursiveWatcher) handle(event fsnotify.Event) {
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Mirrors FolderObserver's MOVED_FROM/DELETE_SELF/DELETE case:
		// drop the child watch first, then still dispatch the event.
		w.removeOne(event.Name)
		w.dispatch(event.Name)

	case event.Op&fsnotify.Create != 0:
		// Mirrors FolderObserver's MOVED_TO/CREATE case: register a watch
		// for a newly-created directory, then fall through to dispatch
		// regardless of whether it was a directory or a file.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watching new directory "+event.Name, err)
			}
		}
		w.dispatch(event.Name)

	default:
		w.dispatch(event.Name)
	}
}

func (w *RecursiveWatcher) dispatch(absPath string) {
	w.mu.Lock()
	root, cb := w.root, w.cb
	w.mu.Unlock()

	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		rel = absPath
	}
	cb(root, filepath.ToSlash(rel))
}
