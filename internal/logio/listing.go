package logio

import (
	"os"
	"path/filepath"

	"github.com/39aldo39/libdecsync-go/internal/fsutil"
	"github.com/39aldo39/libdecsync-go/internal/pathcodec"
)

// ListOptions configures ListFilesRecursive.
type ListOptions struct {
	// ReadBytesSrc, if non-empty, names the cache root mirroring src's
	// directory structure one encoded segment at a time. At every
	// directory visited during the walk, the corresponding cache
	// subdirectory's sequence file is compared against the real one; a
	// match short-circuits that whole subtree, and a refreshed copy is
	// written back after listing it. A sequence file only ever exists
	// inside the directory it versions, so the comparison has to happen
	// at each level the walk actually descends into, not once up front.
	ReadBytesSrc string

	// PathPred, if non-nil, is called with each partial decoded path as the
	// walk descends; returning false prunes that subtree.
	PathPred func(path []string) bool
}

// ListFilesRecursive walks src (an encoded on-disk path) and returns the
// decoded path of every regular, non-hidden leaf file reachable without
// crossing a hidden directory or a PathPred rejection. Hidden names are
// skipped entirely, and undecodable names are skipped with a warning
// (reported via the returned warnings slice rather than a logger, since
// this package has no logging dependency of its own).
func ListFilesRecursive(src string, opts ListOptions) (paths [][]string, warnings []string) {
	return walkDecoded(src, opts.ReadBytesSrc, nil, opts.PathPred)
}

// walkDecoded recurses through dir, threading a cache directory alongside
// it that mirrors the same encoded subdirectory names (cacheDir is empty
// once ReadBytesSrc wasn't supplied, disabling the short-circuit entirely).
func walkDecoded(dir, cacheDir string, prefix []string, pathPred func([]string) bool) (paths [][]string, warnings []string) {
	if cacheDir != "" && SequenceUnchanged(dir, cacheDir) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if fsutil.IsHidden(name) {
			continue
		}

		decoded, err := pathcodec.DecodeSegment(name)
		if err != nil {
			warnings = append(warnings, "undecodable name "+name+" under "+dir)
			continue
		}

		childPath := append(append([]string{}, prefix...), decoded)
		if pathPred != nil && !pathPred(childPath) {
			continue
		}

		fullPath := filepath.Join(dir, name)
		if entry.IsDir() {
			var childCache string
			if cacheDir != "" {
				childCache = filepath.Join(cacheDir, name)
			}
			subPaths, subWarnings := walkDecoded(fullPath, childCache, childPath, pathPred)
			paths = append(paths, subPaths...)
			warnings = append(warnings, subWarnings...)
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, childPath)
	}

	if cacheDir != "" {
		CacheSequence(dir, cacheDir)
	}
	return paths, warnings
}
