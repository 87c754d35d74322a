package fsutil

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AtomicWriteFile writes data to path atomically: write to a hidden
// sibling temp file, sync it, rename over the target, then sync the parent
// directory so the rename survives a crash.
//
// The temp name is ".<name>.tmp" — a dotfile, so a crash mid-rewrite never
// leaves a stray file that a directory scan mistakes for a real log or
// stored-entries file (hidden names are always skipped during listing).
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "writing temp file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "syncing temp file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp file")
	}

	if err := SafeRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "renaming temp file")
	}

	// Best-effort: directory-entry durability doesn't affect correctness,
	// only how quickly the rename survives a crash.
	_ = syncDir(dir)

	return nil
}

// SafeRename renames oldPath to newPath. On Unix this is atomic when both
// paths are on the same filesystem.
func SafeRename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
