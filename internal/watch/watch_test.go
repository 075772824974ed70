package watch

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestWatcherCoalesces(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "doc.txt")
	descriptors := filepath.Join(dir, "ranges.json")
	other := filepath.Join(dir, "other.txt")
	writeFile(t, text, "a")
	writeFile(t, descriptors, "[]")
	writeFile(t, other, "x")

	changes := make(chan []string, 10)
	w, err := New(200*time.Millisecond, func(paths []string) { changes <- paths })
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer w.Close()

	for _, p := range []string{text, descriptors} {
		if err := w.Add(p); err != nil {
			t.Fatalf("Add(%s) error: %v", p, err)
		}
	}
	if got := w.Files(); len(got) != 2 {
		t.Errorf("Files() = %v, want 2 entries", got)
	}

	writeFile(t, other, "ignored")
	writeFile(t, text, "b")
	writeFile(t, descriptors, "[ ]")
	writeFile(t, text, "c")

	select {
	case paths := <-changes:
		want := []string{descriptors, text}
		slices.Sort(want)
		if !slices.Equal(paths, want) {
			t.Errorf("changed = %v, want %v", paths, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case paths := <-changes:
		t.Errorf("unexpected second report %v", paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := New(0, func([]string) {})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := w.Add(filepath.Join(dir, "missing.txt")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("Add(missing) error = %v, want ErrPathNotExist", err)
	}
	if err := w.Add(dir); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("Add(dir) error = %v, want ErrIsDirectory", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}

	path := filepath.Join(dir, "late.txt")
	writeFile(t, path, "x")
	if err := w.Add(path); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after Close error = %v, want ErrClosed", err)
	}
}
