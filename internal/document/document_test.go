package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReplace(t *testing.T) {
	doc := New("note", "hello world")

	tx, err := doc.Replace(6, 11, "gopher")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if got := doc.Text(); got != "hello gopher" {
		t.Errorf("Text() = %q, want %q", got, "hello gopher")
	}
	if tx.Version != 1 || doc.Version() != 1 {
		t.Errorf("version = %d/%d, want 1", tx.Version, doc.Version())
	}
	if len(tx.Removed) != 1 || tx.Removed[0] != "world" {
		t.Errorf("Removed = %q, want [world]", tx.Removed)
	}
	if !doc.Modified() {
		t.Error("document should be modified")
	}
}

func TestApplyMultipleChanges(t *testing.T) {
	doc := New("note", "aaa bbb ccc")

	// Offsets refer to the original text regardless of order.
	_, err := doc.Apply(
		Change{From: 8, To: 11, Insert: "Z"},
		Change{From: 0, To: 3, Insert: "XXXX"},
	)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := doc.Text(); got != "XXXX bbb Z" {
		t.Errorf("Text() = %q, want %q", got, "XXXX bbb Z")
	}

	if _, err := doc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := doc.Text(); got != "aaa bbb ccc" {
		t.Errorf("after undo Text() = %q, want original", got)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		changes []Change
		want    error
	}{
		{"negative", []Change{{From: -1, To: 0}}, ErrOutOfRange},
		{"past end", []Change{{From: 0, To: 99}}, ErrOutOfRange},
		{"inverted", []Change{{From: 3, To: 1}}, ErrOutOfRange},
		{"overlap", []Change{{From: 0, To: 3, Insert: "a"}, {From: 2, To: 4, Insert: "b"}}, ErrOverlap},
		{"double insert", []Change{{From: 2, To: 2, Insert: "a"}, {From: 2, To: 2, Insert: "b"}}, ErrOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New("note", "abcdef")
			_, err := doc.Apply(tt.changes...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Apply error = %v, want %v", err, tt.want)
			}
			if doc.Text() != "abcdef" || doc.Version() != 0 {
				t.Error("failed transaction must not modify the document")
			}
		})
	}
}

func TestAdjacentChanges(t *testing.T) {
	doc := New("note", "abcdef")
	_, err := doc.Apply(
		Change{From: 0, To: 3, Insert: "X"},
		Change{From: 3, To: 3, Insert: "Y"},
	)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := doc.Text(); got != "XYdef" {
		t.Errorf("Text() = %q, want %q", got, "XYdef")
	}
}

func TestNoOpTransaction(t *testing.T) {
	doc := New("note", "abc")
	called := false
	doc.OnChange(func(Transaction) { called = true })

	tx, err := doc.Apply(Change{From: 1, To: 1})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(tx.Changes) != 0 || doc.Version() != 0 {
		t.Error("no-op change should not commit")
	}
	if called {
		t.Error("listeners should not run for a no-op")
	}
	if doc.CanUndo() {
		t.Error("no-op should not be undoable")
	}
}

func TestUndoRedo(t *testing.T) {
	doc := New("note", "one")

	if _, err := doc.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo on fresh doc error = %v, want ErrNothingToUndo", err)
	}

	_, _ = doc.Replace(0, 3, "two")
	_, _ = doc.Replace(3, 3, "!")

	if _, err := doc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := doc.Text(); got != "two" {
		t.Errorf("Text() = %q, want %q", got, "two")
	}
	if _, err := doc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := doc.Text(); got != "one" {
		t.Errorf("Text() = %q, want %q", got, "one")
	}

	if _, err := doc.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if got := doc.Text(); got != "two" {
		t.Errorf("after redo Text() = %q, want %q", got, "two")
	}

	// A new edit clears the redo stack.
	_, _ = doc.Replace(0, 0, ">")
	if _, err := doc.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo after edit error = %v, want ErrNothingToRedo", err)
	}
}

func TestMaxHistory(t *testing.T) {
	doc := New("note", "", WithMaxHistory(2))
	for i := 0; i < 5; i++ {
		_, _ = doc.Replace(doc.Len(), doc.Len(), "x")
	}

	undone := 0
	for doc.CanUndo() {
		if _, err := doc.Undo(); err != nil {
			t.Fatalf("Undo failed: %v", err)
		}
		undone++
	}
	if undone != 2 {
		t.Errorf("undid %d transactions, want 2", undone)
	}
	if got := doc.Text(); got != "xxx" {
		t.Errorf("Text() = %q, want %q", got, "xxx")
	}
}

func TestOnChange(t *testing.T) {
	doc := New("note", "abc")

	var got []string
	remove := doc.OnChange(func(tx Transaction) {
		got = append(got, tx.Origin)
	})

	_, _ = doc.Replace(0, 1, "A")
	_, _ = doc.Undo()
	remove()
	_, _ = doc.Redo()

	if len(got) != 2 || got[0] != "edit" || got[1] != "undo" {
		t.Errorf("origins = %v, want [edit undo]", got)
	}
}

func TestMapPos(t *testing.T) {
	doc := New("note", "0123456789")
	tx, err := doc.Apply(Change{From: 2, To: 4, Insert: "abcd"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	tests := []struct{ in, want int }{
		{0, 0},
		{2, 6},
		{3, 6},
		{4, 6},
		{5, 7},
		{10, 12},
	}
	for _, tt := range tests {
		if got := tx.MapPos(tt.in); got != tt.want {
			t.Errorf("MapPos(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPosition(t *testing.T) {
	doc := New("note", "ab\ncd\nef")
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{7, 3, 2},
		{100, 3, 3},
	}
	for _, tt := range tests {
		line, col := doc.Position(tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func TestSlice(t *testing.T) {
	doc := New("note", "hello")
	if got := doc.Slice(1, 3); got != "el" {
		t.Errorf("Slice(1, 3) = %q, want %q", got, "el")
	}
	if got := doc.Slice(-5, 99); got != "hello" {
		t.Errorf("Slice clamps, got %q", got)
	}
	if got := doc.Slice(3, 1); got != "" {
		t.Errorf("Slice(3, 1) = %q, want empty", got)
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("<secret>x</secret>"), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Modified() {
		t.Error("freshly loaded document should not be modified")
	}

	_, _ = doc.Replace(8, 9, "y")
	if err := doc.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if doc.Modified() {
		t.Error("saved document should not be modified")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<secret>y</secret>" {
		t.Errorf("file content = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSaveWithoutPath(t *testing.T) {
	doc := New("scratch", "x")
	if err := doc.Save(); !errors.Is(err, ErrNoPath) {
		t.Errorf("Save error = %v, want ErrNoPath", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.md"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error = %v, want os.ErrNotExist", err)
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tx, err := doc.Reload()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(tx.Changes) != 0 {
		t.Error("reload of unchanged file should not commit")
	}

	if err := os.WriteFile(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if doc.Text() != "second" {
		t.Errorf("Text() = %q, want %q", doc.Text(), "second")
	}
	if doc.Modified() {
		t.Error("reloaded document should match disk")
	}
}
