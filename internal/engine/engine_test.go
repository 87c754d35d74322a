package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/39aldo39/libdecsync-go/internal/jsonvalue"
	"github.com/39aldo39/libdecsync-go/internal/logio"
)

type recordingListener struct {
	prefix   []string
	received []recordedUpdate
}

type recordedUpdate struct {
	path    []string
	entries []logio.Entry
}

func (l *recordingListener) MatchesPath(path []string) bool {
	if len(path) < len(l.prefix) {
		return false
	}
	for i, seg := range l.prefix {
		if path[i] != seg {
			return false
		}
	}
	return true
}

func (l *recordingListener) OnEntriesUpdate(path []string, entries []logio.Entry, extra any) {
	l.received = append(l.received, recordedUpdate{path: path, entries: entries})
}

func newEntry(dt, key string, value jsonvalue.Value) logio.Entry {
	return logio.Entry{DateTime: dt, Key: jsonvalue.NewString(key), Value: value}
}

func TestSingleWriterEntryBecomesStoredValue(t *testing.T) {
	dir := t.TempDir()
	eng := New(dir, "A", NopLogger{}, nil)

	eng.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "name", jsonvalue.NewString("Work")),
	})

	newFile := filepath.Join(dir, "new-entries", "A", "info")
	entries, err := logio.ReadAllEntries(newFile)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "name", mustKeyString(t, entries[0]))

	value, ok := GetStoredStaticValue(dir, []string{"info"}, jsonvalue.NewString("name"), NopLogger{})
	require.True(t, ok)
	got, _ := value.String()
	require.Equal(t, "Work", got)
}

func mustKeyString(t *testing.T, e logio.Entry) string {
	t.Helper()
	s, ok := e.Key.String()
	require.True(t, ok)
	return s
}

func TestTwoWritersConvergeOnLatestByDateTime(t *testing.T) {
	dir := t.TempDir()
	listenerA := &recordingListener{prefix: []string{"info"}}
	listenerB := &recordingListener{prefix: []string{"info"}}
	engA := New(dir, "A", NopLogger{}, []Listener{listenerA})
	engB := New(dir, "B", NopLogger{}, []Listener{listenerB})

	engA.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "color", jsonvalue.NewString("red")),
	})
	engB.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:01", "color", jsonvalue.NewString("blue")),
	})

	engA.ExecuteAllNewEntries(nil)
	engB.ExecuteAllNewEntries(nil)

	valueA, okA := GetStoredStaticValue(dir, []string{"info"}, jsonvalue.NewString("color"), NopLogger{})
	require.True(t, okA)
	gotA, _ := valueA.String()
	require.Equal(t, "blue", gotA)

	require.Len(t, listenerA.received, 1)
	require.Len(t, listenerA.received[0].entries, 1)
	valA, _ := listenerA.received[0].entries[0].Value.String()
	require.Equal(t, "blue", valA)

	require.Empty(t, listenerB.received, "B's own write should already be in its stored view, not re-dispatched")
}

func TestStaleWriteNotDispatched(t *testing.T) {
	dir := t.TempDir()
	listenerB := &recordingListener{prefix: []string{"info"}}
	engA := New(dir, "A", NopLogger{}, nil)
	engB := New(dir, "B", NopLogger{}, []Listener{listenerB})

	engB.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:02", "color", jsonvalue.NewString("blue")),
	})
	engA.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:01", "color", jsonvalue.NewString("green")),
	})

	engB.ExecuteAllNewEntries(nil)

	require.Empty(t, listenerB.received, "listener must not be invoked for a stale entry")

	value, ok := GetStoredStaticValue(dir, []string{"info"}, jsonvalue.NewString("color"), NopLogger{})
	require.True(t, ok)
	got, _ := value.String()
	require.Equal(t, "blue", got, "B's stored value must remain the fresher one")
}

func TestStoredFileRewrittenToDropStaleLine(t *testing.T) {
	dir := t.TempDir()
	engA := New(dir, "A", NopLogger{}, nil)
	engB := New(dir, "B", NopLogger{}, nil)

	engB.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "color", jsonvalue.NewString("red")),
	})
	engA.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:01", "color", jsonvalue.NewString("green")),
	})

	engB.ExecuteAllNewEntries(nil)

	storedFile := filepath.Join(dir, "stored-entries", "B", "info")
	entries, err := logio.ReadAllEntries(storedFile)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the stale red line must have been filtered out")
	val, _ := entries[0].Value.String()
	require.Equal(t, "green", val)
}

func TestFreshInstanceBootstrapsFromFreshestPeer(t *testing.T) {
	dir := t.TempDir()
	engA := New(dir, "A", NopLogger{}, nil)
	engA.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "name", jsonvalue.NewString("Work")),
	})

	listenerC := &recordingListener{prefix: []string{"info"}}
	engC := New(dir, "C", NopLogger{}, []Listener{listenerC})
	engC.InitStoredEntries()

	storedC, err := logio.ReadAllEntries(filepath.Join(dir, "stored-entries", "C", "info"))
	require.NoError(t, err)
	require.Len(t, storedC, 1)

	sizeA, err := logio.Size(filepath.Join(dir, "new-entries", "A", "info"))
	require.NoError(t, err)
	cursor := logio.ReadCursor(filepath.Join(dir, "read-bytes", "C", "A", "info"))
	require.Equal(t, sizeA, cursor)

	engC.ExecuteStoredEntries(nil, nil, nil, nil, nil)
	require.Len(t, listenerC.received, 1)
	require.Len(t, listenerC.received[0].entries, 1)
}

// Encoding itself is covered directly in internal/pathcodec's tests; this
// only checks the engine resolves paths through the same codec.
func TestEngineUsesPathCodecForFileNames(t *testing.T) {
	dir := t.TempDir()
	eng := New(dir, "A", NopLogger{}, nil)
	eng.SetEntriesForPath([]string{".hidden"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "k", jsonvalue.NewInt(1)),
	})

	size, err := logio.Size(filepath.Join(dir, "new-entries", "A", "%2Ehidden"))
	require.NoError(t, err)
	require.Positive(t, size)
}

func TestSetEntriesForPathIsAppendOnly(t *testing.T) {
	dir := t.TempDir()
	eng := New(dir, "A", NopLogger{}, nil)

	eng.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "a", jsonvalue.NewInt(1)),
	})
	sizeAfterFirst, err := logio.Size(filepath.Join(dir, "new-entries", "A", "info"))
	require.NoError(t, err)

	eng.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:01", "b", jsonvalue.NewInt(2)),
	})
	sizeAfterSecond, err := logio.Size(filepath.Join(dir, "new-entries", "A", "info"))
	require.NoError(t, err)

	require.Greater(t, sizeAfterSecond, sizeAfterFirst)
}

func TestSequenceBumpedOnEveryAppend(t *testing.T) {
	dir := t.TempDir()
	eng := New(dir, "A", NopLogger{}, nil)

	eng.SetEntriesForPath([]string{"notes", "todo"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "a", jsonvalue.NewInt(1)),
	})

	root := filepath.Join(dir, "new-entries", "A")
	require.FileExists(t, filepath.Join(root, ".decsync-sequence"))
	require.FileExists(t, filepath.Join(root, "notes", ".decsync-sequence"))
}

func TestIdempotentExecuteAllNewEntries(t *testing.T) {
	dir := t.TempDir()
	listenerB := &recordingListener{prefix: []string{"info"}}
	engA := New(dir, "A", NopLogger{}, nil)
	engB := New(dir, "B", NopLogger{}, []Listener{listenerB})

	engA.SetEntriesForPath([]string{"info"}, []logio.Entry{
		newEntry("2026-01-01T00:00:00", "color", jsonvalue.NewString("red")),
	})

	engB.ExecuteAllNewEntries(nil)
	require.Len(t, listenerB.received, 1)

	engB.ExecuteAllNewEntries(nil)
	require.Len(t, listenerB.received, 1, "a second pass with no new writes must dispatch nothing")
}
