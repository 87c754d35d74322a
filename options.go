package decsync

// DecsyncOption configures a DecsyncDir at Open time. Following the
// teacher's StoreOption/PutOption pattern (options.go), DecSync has no
// config file of its own — these options are the only per-instance
// configuration surface.
type DecsyncOption func(*decsyncOptions)

type decsyncOptions struct {
	logger  Logger
	watcher Watcher
}

// WithLogger sets the Logger a DecsyncDir reports internal errors to.
// Defaults to NewNoopLogger.
func WithLogger(logger Logger) DecsyncOption {
	return func(o *decsyncOptions) {
		o.logger = logger
	}
}

// WithWatcher supplies a custom recursive directory watcher in place of the
// default fsnotify-backed internal/watcher.RecursiveWatcher. Hosts with
// their own inotify/FSEvents/ReadDirectoryChangesW wrapper use this to plug
// it in, implementing the Watcher/Callback pair re-exported from the root
// package.
func WithWatcher(w Watcher) DecsyncOption {
	return func(o *decsyncOptions) {
		o.watcher = w
	}
}
