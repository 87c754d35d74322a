// Package logio implements the append-only entry log format: line encoding,
// cursor-based tail reads, atomic filtered rewrites, sequence-file
// bookkeeping, and the hidden-skip/version-short-circuit recursive listing
// that the convergence engine scans new-entries and stored-entries trees
// with.
//
// Adapted from aigotowork/stow's internal/core package (Record/Encoder/
// Decoder), generalized from stow's fixed meta+data JSONL shape to the
// three-element [datetime, key, value] array used for every entry line.
package logio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/39aldo39/libdecsync-go/internal/fsutil"
	"github.com/39aldo39/libdecsync-go/internal/jsonvalue"
)

// Entry is a single timestamped assignment: a JSON key mapped to a JSON
// value, recorded at a UTC datetime of second resolution.
type Entry struct {
	DateTime string
	Key      jsonvalue.Value
	Value    jsonvalue.Value
}

// Encode serializes an Entry as one line of the form
// [datetime,key,value]\n.
func (e Entry) Encode() ([]byte, error) {
	keyJSON, err := e.Key.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "encoding entry key")
	}
	valueJSON, err := e.Value.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "encoding entry value")
	}
	dtJSON, err := json.Marshal(e.DateTime)
	if err != nil {
		return nil, errors.Wrap(err, "encoding entry datetime")
	}

	var b bytes.Buffer
	b.WriteByte('[')
	b.Write(dtJSON)
	b.WriteByte(',')
	b.Write(keyJSON)
	b.WriteByte(',')
	b.Write(valueJSON)
	b.WriteString("]\n")
	return b.Bytes(), nil
}

// DecodeLine parses a single line (without trailing newline) into an Entry.
// A line that is not a 3-element JSON array, or whose first element is not
// a string, is rejected: callers must skip it and log a warning rather than
// treat it as fatal, since a single corrupted line must never abort a scan
// of an otherwise-healthy log file.
func DecodeLine(line []byte) (Entry, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Entry{}, errors.Wrap(err, "line is not a JSON array")
	}
	if len(raw) != 3 {
		return Entry{}, errors.Errorf("entry array has %d elements, want 3", len(raw))
	}

	var dt string
	if err := json.Unmarshal(raw[0], &dt); err != nil {
		return Entry{}, errors.Wrap(err, "entry datetime is not a JSON string")
	}

	key, err := jsonvalue.Parse(raw[1])
	if err != nil {
		return Entry{}, errors.Wrap(err, "parsing entry key")
	}
	value, err := jsonvalue.Parse(raw[2])
	if err != nil {
		return Entry{}, errors.Wrap(err, "parsing entry value")
	}

	return Entry{DateTime: dt, Key: key, Value: value}, nil
}

// ParseLines splits a byte slice on '\n' and decodes each non-empty line,
// skipping malformed lines. It returns the valid entries together with the
// count of lines that failed to decode, for callers that want to log a
// single warning per batch rather than one per line.
func ParseLines(data []byte) (entries []Entry, skipped int) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		entry, err := DecodeLine(line)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped
}

// AppendEntries appends the given entries as lines to path, creating the
// file and its parent directories if necessary. The write is followed by an
// fsync so the append is durable before any dependent sequence-file bump is
// observed by a peer.
func AppendEntries(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := fsutil.EnsureDir(dir, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening %s for append", path)
	}
	defer f.Close()

	for _, e := range entries {
		line, err := e.Encode()
		if err != nil {
			return errors.Wrapf(err, "encoding entry for %s", path)
		}
		if _, err := f.Write(line); err != nil {
			return errors.Wrapf(err, "writing entry to %s", path)
		}
	}
	return f.Sync()
}

// ReadAllEntries reads every entry in path, skipping malformed lines. It
// returns (nil, nil) if path does not exist.
func ReadAllEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	entries, _ := ParseLines(data)
	return entries, nil
}

// Size returns the current byte length of path, or 0 if it does not exist.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "stat %s", path)
	}
	return info.Size(), nil
}

// ReadRange reads path from byte offset from up to byte offset to (the size
// observed when the cursor was advanced), returning the parsed entries in
// that span. Split out from ReadFrom so callers needing the
// stat-then-advance-cursor-then-parse ordering can record the size first
// and only then read the tail, keeping the cursor always ahead of or equal
// to what has actually been parsed.
func ReadRange(path string, from, to int64) ([]Entry, error) {
	if from >= to {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	if from < 0 {
		from = 0
	}
	if _, err := f.Seek(from, os.SEEK_SET); err != nil {
		return nil, errors.Wrapf(err, "seeking %s", path)
	}

	limited := io.LimitReader(f, to-from)
	tail, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.Wrapf(err, "reading range of %s", path)
	}
	entries, _ := ParseLines(tail)
	return entries, nil
}

// ReadFrom reads path starting at byte offset from, returning the entries
// found in the remainder of the file together with the file's current
// total size. It returns size == 0 if path does not exist.
func ReadFrom(path string, from int64) (entries []Entry, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, errors.Wrapf(err, "stat %s", path)
	}
	size = info.Size()

	if from >= size {
		return nil, size, nil
	}
	if from < 0 {
		from = 0
	}
	if _, err := f.Seek(from, os.SEEK_SET); err != nil {
		return nil, size, errors.Wrapf(err, "seeking %s", path)
	}

	tail, err := io.ReadAll(f)
	if err != nil {
		return nil, size, errors.Wrapf(err, "reading tail of %s", path)
	}
	entries, _ = ParseLines(tail)
	return entries, size, nil
}
