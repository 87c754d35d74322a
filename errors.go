package decsync

import "errors"

// Errors returned by the two DecSync operations that report failure to the
// caller — opening a directory, and starting the watcher in InitObserver.
// Every other public operation follows the fire-and-forget error model: it
// returns void or a value, and failures are reported only through the
// configured Logger.
var (
	// ErrDirRequired is returned by Open when dir is empty.
	ErrDirRequired = errors.New("decsync: directory path is required")

	// ErrAppIdRequired is returned by Open when ownAppId is empty.
	ErrAppIdRequired = errors.New("decsync: ownAppId is required")

	// ErrWatcherUnavailable is returned by InitObserver when no watcher
	// (default or supplied via WithWatcher) can watch the directory. This
	// is non-fatal: the DecsyncDir remains usable via explicit
	// ExecuteAllNewEntries polling.
	ErrWatcherUnavailable = errors.New("decsync: watcher target unavailable")
)
