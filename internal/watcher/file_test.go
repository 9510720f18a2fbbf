package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitEvent(t *testing.T, w *Watcher, timeout time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		return ev, ok
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestAddErrors(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Join(t.TempDir(), "missing.md")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("Add missing error = %v, want ErrPathNotExist", err)
	}
	if err := w.Add(t.TempDir()); !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("Add dir error = %v, want ErrNotRegularFile", err)
	}

	path := newTestFile(t, "x")
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(path); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("second Add error = %v, want ErrAlreadyWatching", err)
	}
	if got := w.Files(); len(got) != 1 || got[0] != path {
		t.Errorf("Files = %v", got)
	}

	if err := w.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Remove(path); !errors.Is(err, ErrNotWatching) {
		t.Errorf("second Remove error = %v, want ErrNotWatching", err)
	}
}

func TestClosed(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}

	if err := w.Add(newTestFile(t, "x")); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Add after Close error = %v, want ErrWatcherClosed", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("Events should be closed")
	}
}

func TestWriteEvent(t *testing.T) {
	path := newTestFile(t, "one")

	w, err := New(WithDebounce(0))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev, ok := waitEvent(t, w, 2*time.Second)
	if !ok {
		t.Fatal("timeout waiting for event")
	}
	if ev.Path != path {
		t.Errorf("Path = %q, want %q", ev.Path, path)
	}
	if !ev.Op.Has(OpWrite) && !ev.Op.Has(OpCreate) {
		t.Errorf("Op = %s, want WRITE or CREATE", ev.Op)
	}
}

func TestIgnoresSiblings(t *testing.T) {
	path := newTestFile(t, "one")

	w, err := New(WithDebounce(0))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	sibling := filepath.Join(filepath.Dir(path), "other.md")
	if err := os.WriteFile(sibling, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if ev, ok := waitEvent(t, w, 200*time.Millisecond); ok {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestDebounceCoalesces(t *testing.T) {
	path := newTestFile(t, "0")

	w, err := New(WithDebounce(150 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('1' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, ok := waitEvent(t, w, 2*time.Second); !ok {
		t.Fatal("timeout waiting for debounced event")
	}
	if ev, ok := waitEvent(t, w, 400*time.Millisecond); ok {
		t.Errorf("writes were not coalesced; extra event %+v", ev)
	}
}

func TestAtomicRenameSave(t *testing.T) {
	path := newTestFile(t, "old")

	w, err := New(WithDebounce(50 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	ev, ok := waitEvent(t, w, 2*time.Second)
	if !ok {
		t.Fatal("timeout waiting for event after rename")
	}
	if ev.Path != path || ev.Removed() {
		t.Errorf("event = %+v, want change to %s", ev, path)
	}
}

func TestFlush(t *testing.T) {
	path := newTestFile(t, "a")

	w, err := New(WithDebounce(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		w.mu.Lock()
		n := len(w.pending)
		w.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no pending event")
		}
		time.Sleep(10 * time.Millisecond)
	}

	w.Flush()
	if _, ok := waitEvent(t, w, time.Second); !ok {
		t.Error("Flush did not deliver the pending event")
	}
}
