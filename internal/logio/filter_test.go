package logio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/39aldo39/libdecsync-go/internal/jsonvalue"
)

func TestFilterFileKeepsOnlyMatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info")

	entries := []Entry{
		{DateTime: "2026-01-01T00:00:00", Key: jsonvalue.NewString("color"), Value: jsonvalue.NewString("red")},
		{DateTime: "2026-01-01T00:00:01", Key: jsonvalue.NewString("color"), Value: jsonvalue.NewString("green")},
		{DateTime: "2026-01-01T00:00:00", Key: jsonvalue.NewString("size"), Value: jsonvalue.NewInt(10)},
	}
	if err := AppendEntries(path, entries); err != nil {
		t.Fatalf("AppendEntries: %v", err)
	}

	err := FilterFile(path, func(e Entry) bool {
		return !(jsonvalue.Equal(e.Key, jsonvalue.NewString("color")) && e.DateTime == "2026-01-01T00:00:00")
	})
	if err != nil {
		t.Fatalf("FilterFile: %v", err)
	}

	survivors, err := ReadAllEntries(path)
	if err != nil {
		t.Fatalf("ReadAllEntries: %v", err)
	}
	if len(survivors) != 2 {
		t.Fatalf("got %d survivors, want 2: %+v", len(survivors), survivors)
	}
}

func TestFilterFileNoStrayTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info")
	if err := AppendEntries(path, []Entry{
		{DateTime: "2026-01-01T00:00:00", Key: jsonvalue.NewString("a"), Value: jsonvalue.NewInt(1)},
	}); err != nil {
		t.Fatalf("AppendEntries: %v", err)
	}

	if err := FilterFile(path, func(Entry) bool { return true }); err != nil {
		t.Fatalf("FilterFile: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "info" {
		t.Errorf("dir entries = %v, want only info", entries)
	}
}

func TestFilterFileMissingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	if err := FilterFile(path, func(Entry) bool { return true }); err != nil {
		t.Fatalf("FilterFile on missing file: %v", err)
	}
}
