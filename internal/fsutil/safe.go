// Package fsutil provides the file system primitives the convergence
// engine and log I/O layers build on: safe directory creation, atomic
// rewrite-via-temp-file, and recursive directory copy.
//
// Adapted from aigotowork/stow's internal/fsutil package; trimmed to the
// operations the engine actually exercises.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// EnsureDir ensures that a directory exists, creating parents as needed.
func EnsureDir(path string, perm os.FileMode) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return errors.Errorf("path exists but is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %s", path)
	}
	return errors.Wrapf(os.MkdirAll(path, perm), "mkdir -p %s", path)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RemoveAll removes path and everything under it. It is not an error if
// path does not exist.
func RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	return nil
}

// ListDirs returns the non-hidden subdirectories of dir, non-recursively,
// as bare names (not joined with dir).
func ListDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dir %s", dir)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !IsHidden(e.Name()) {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// AbsPath resolves path to an absolute path.
func AbsPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	return abs, errors.Wrapf(err, "resolving %s", path)
}

// IsHidden reports whether a bare file/directory name starts with '.'.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// CopyDir recursively copies the contents of src into dst, overwriting any
// existing files. dst is created if it doesn't exist.
//
// Grounded on the copyDir/copyFile test helpers in bobg/bs's dsync package
// (dsync_test.go), repurposed here from test scaffolding into the
// production recursive copy a fresh instance's bootstrap performs.
func CopyDir(dst, src string) error {
	if err := EnsureDir(dst, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "reading dir %s", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := CopyDir(dstPath, srcPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(dstPath, srcPath); err != nil {
			return errors.Wrapf(err, "copying %s to %s", srcPath, dstPath)
		}
	}
	return nil
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrap(err, "copying bytes")
	}
	return out.Sync()
}
