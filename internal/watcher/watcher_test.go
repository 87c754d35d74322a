package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDetectsFileCreation(t *testing.T) {
	root := t.TempDir()
	w := New(nil)
	defer w.Stop()

	events := make(chan string, 16)
	err := w.Watch(root, func(root, rel string) {
		events <- rel
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "a"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case rel := <-events:
		if rel != "a" {
			t.Errorf("got rel %q, want %q", rel, "a")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for create event")
	}
}

func TestWatchDetectsNestedDirectoryCreation(t *testing.T) {
	root := t.TempDir()
	w := New(nil)
	defer w.Stop()

	events := make(chan string, 64)
	err := w.Watch(root, func(root, rel string) {
		events <- rel
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	subdir := filepath.Join(root, "sub")
	if err := os.Mkdir(subdir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	// Wait for the directory-create event before writing into it, since the
	// watcher must register a new watch on sub before it can see files
	// created inside it.
	waitFor(t, events, "sub", 5*time.Second)

	if err := os.WriteFile(filepath.Join(subdir, "nested"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	waitFor(t, events, "sub/nested", 5*time.Second)
}

func TestWatchFailsOnMissingRoot(t *testing.T) {
	w := New(nil)
	err := w.Watch(filepath.Join(t.TempDir(), "missing"), func(string, string) {})
	if err == nil {
		t.Fatal("expected error watching a missing directory")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w := New(nil)
	if err := w.Watch(root, func(string, string) {}); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	w.Stop()
	w.Stop()
}

func waitFor(t *testing.T, events <-chan string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case rel := <-events:
			if rel == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %q", want)
		}
	}
}
