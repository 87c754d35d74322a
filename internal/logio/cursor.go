package logio

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/39aldo39/libdecsync-go/internal/fsutil"
)

// ReadCursor reads path as an integer byte offset, treating a missing or
// unparsable file as 0: re-reading a bit of already-seen log is cheap,
// refusing to make progress is not.
func ReadCursor(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// WriteCursor writes offset to path, creating parent directories as
// needed. It is written plainly (not via AtomicWriteFile's rename dance):
// the cursor must be durable *before* the new-entries tail is parsed, and
// a torn write here only costs a re-parse of already-seen bytes on next
// read, never incorrect merge state.
func WriteCursor(path string, offset int64) error {
	if err := fsutil.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.FormatInt(offset, 10)), 0o644)
}
