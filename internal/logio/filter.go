package logio

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/39aldo39/libdecsync-go/internal/fsutil"
)

// FilterFile rewrites path to contain only the entries for which keep
// returns true, via the usual temp-file-then-rename dance. path itself is
// untouched if it doesn't exist.
//
// Grounded on the compactKey method in aigotowork/stow's
// namespace_advanced.go: read, filter, write to a sibling temp file, sync,
// close, atomic rename. Here the temp name is the hidden ".<name>.tmp"
// fsutil.AtomicWriteFile uses elsewhere, so a crash mid-rewrite can't leave
// a stray file a directory scan mistakes for a real entry log.
func FilterFile(path string, keep func(Entry) bool) error {
	entries, err := ReadAllEntries(path)
	if err != nil {
		return err
	}
	if entries == nil {
		return nil
	}

	var survivors []Entry
	for _, e := range entries {
		if keep(e) {
			survivors = append(survivors, e)
		}
	}

	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	for _, e := range survivors {
		line, err := e.Encode()
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
			return errors.Wrapf(err, "encoding survivor entry for %s", path)
		}
		if _, err := f.Write(line); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return errors.Wrapf(err, "writing survivor entry for %s", path)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "syncing temp file for %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "closing temp file for %s", path)
	}

	if err := fsutil.SafeRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "renaming temp file over %s", path)
	}
	return nil
}
