// Package engine implements the convergence engine: the write path that
// appends new entries and bumps sequence counters, the read path that
// ingests a peer's unread tail and merges it into the stored view, and
// the bootstrap path that seeds a fresh instance from the freshest peer.
//
// Adapted from aigotowork/stow's namespace.go: the per-key sync.Map lock
// there becomes a single engine-wide mutex here, since the whole engine is
// treated as single-threaded from the library's perspective rather than
// lock-striping per key.
package engine

import (
	"path/filepath"

	"github.com/39aldo39/libdecsync-go/internal/pathcodec"
)

// Location names the three files one convergence step reads from and
// writes to: the source log, the materialized stored view it feeds (if
// any), and the read cursor tracking how far that stored view has
// consumed the source log (if any). Path is the logical, decoded path
// the location addresses.
type Location struct {
	Path          []string
	NewFile       string
	StoredFile    string // empty: updateStoredEntries is a no-op (read-only dispatch)
	ReadBytesFile string // empty: no cursor is persisted, the whole file is read every time
}

// NewEntriesLocation builds the location used to ingest appId's unread new-
// entries tail at path into ownAppId's stored view.
func NewEntriesLocation(dir string, ownAppId, appId string, path []string) Location {
	pathEnc := pathcodec.Encode(path)
	return Location{
		Path:          path,
		NewFile:       filepath.Join(dir, "new-entries", pathcodec.EncodeSegment(appId), pathEnc),
		StoredFile:    filepath.Join(dir, "stored-entries", pathcodec.EncodeSegment(ownAppId), pathEnc),
		ReadBytesFile: filepath.Join(dir, "read-bytes", pathcodec.EncodeSegment(ownAppId), pathcodec.EncodeSegment(appId), pathEnc),
	}
}

// StoredEntriesLocation builds the location used to replay ownAppId's
// already-materialized stored view at path to listeners. The stored file
// is read as the source; there is no further merge target and no cursor,
// so the whole file is re-read on every call.
func StoredEntriesLocation(dir string, ownAppId string, path []string) Location {
	pathEnc := pathcodec.Encode(path)
	return Location{
		Path:    path,
		NewFile: filepath.Join(dir, "stored-entries", pathcodec.EncodeSegment(ownAppId), pathEnc),
	}
}

func newEntriesRoot(dir, appId string) string {
	return filepath.Join(dir, "new-entries", pathcodec.EncodeSegment(appId))
}

func storedEntriesRoot(dir, appId string) string {
	return filepath.Join(dir, "stored-entries", pathcodec.EncodeSegment(appId))
}

func readBytesRoot(dir, ownAppId string) string {
	return filepath.Join(dir, "read-bytes", pathcodec.EncodeSegment(ownAppId))
}
