package logio

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const sequenceFileName = ".decsync-sequence"

// readSequence reads dir/.decsync-sequence as an integer, treating a
// missing or unparsable file as 0: a bookkeeping file is never worth
// failing a sync over.
func readSequence(dir string) int {
	data, err := os.ReadFile(filepath.Join(dir, sequenceFileName))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return n
}

// BumpSequence reads dir/.decsync-sequence, increments it by one, and
// writes the result back. It is called once per ancestor directory
// (including dir itself) on every append to a new-entries log, so that a
// peer scanning any ancestor can tell at a glance whether anything beneath
// it changed since the last scan.
func BumpSequence(dir string) error {
	next := readSequence(dir) + 1
	path := filepath.Join(dir, sequenceFileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(next)), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// BumpSequenceChain calls BumpSequence on dir and on every strict ancestor
// of dir up to and including root. Individual failures are collected but
// do not stop the chain: a failure to bump one ancestor's counter must not
// prevent bumping the others, since each is an independent signal peers
// rely on to prune unchanged subtrees.
func BumpSequenceChain(root string, dir string) error {
	dirs := ancestorsInclusive(root, dir)
	var firstErr error
	for _, d := range dirs {
		if err := BumpSequence(d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SequenceUnchanged reports whether src/.decsync-sequence exists and is
// textually equal to cacheDir/.decsync-sequence.
func SequenceUnchanged(src, cacheDir string) bool {
	a, errA := os.ReadFile(filepath.Join(src, sequenceFileName))
	if errA != nil {
		return false
	}
	b, errB := os.ReadFile(filepath.Join(cacheDir, sequenceFileName))
	if errB != nil {
		return false
	}
	return strings.TrimSpace(string(a)) == strings.TrimSpace(string(b))
}

// CacheSequence best-effort copies src/.decsync-sequence into cacheDir.
// I/O errors are swallowed: a missed cache update only means the next scan
// redoes work it could have skipped, never incorrect behavior.
func CacheSequence(src, cacheDir string) {
	data, err := os.ReadFile(filepath.Join(src, sequenceFileName))
	if err != nil {
		return
	}
	_ = os.MkdirAll(cacheDir, 0o755)
	_ = os.WriteFile(filepath.Join(cacheDir, sequenceFileName), data, 0o644)
}
