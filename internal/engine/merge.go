package engine

import (
	"github.com/39aldo39/libdecsync-go/internal/jsonvalue"
	"github.com/39aldo39/libdecsync-go/internal/logio"
)

// updateStoredEntries merges entries into loc.StoredFile, preserving the
// invariant that the file holds exactly one effective (latest-by-datetime)
// line per key. It returns the subset of entries that were actually fresher
// than whatever was already stored — the set a listener should see, since
// an entry found to be stale during merge must not be re-delivered.
//
// If loc.StoredFile is empty this is a no-op bootstrap/dispatch case and
// entries is returned unchanged.
func updateStoredEntries(loc Location, entries []logio.Entry) ([]logio.Entry, error) {
	if loc.StoredFile == "" {
		return entries, nil
	}

	stored, err := logio.ReadAllEntries(loc.StoredFile)
	if err != nil {
		return nil, err
	}

	remaining := append([]logio.Entry(nil), entries...)
	haveToFilterFile := false

	for _, storedEntry := range stored {
		for i := 0; i < len(remaining); i++ {
			newEntry := remaining[i]
			if !jsonvalue.Equal(newEntry.Key, storedEntry.Key) {
				continue
			}
			if newEntry.DateTime > storedEntry.DateTime {
				haveToFilterFile = true
			} else {
				remaining = append(remaining[:i], remaining[i+1:]...)
				i--
			}
		}
	}

	if haveToFilterFile {
		err := logio.FilterFile(loc.StoredFile, func(e logio.Entry) bool {
			for _, ne := range remaining {
				if jsonvalue.Equal(e.Key, ne.Key) {
					return false
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	if len(remaining) > 0 {
		if err := logio.AppendEntries(loc.StoredFile, remaining); err != nil {
			return nil, err
		}
	}

	return remaining, nil
}
