package document

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
)

// DefaultMaxHistory is the undo depth used when none is configured.
const DefaultMaxHistory = 1000

// Listener is called after each committed transaction.
type Listener func(tx Transaction)

// Document is an editable text with undo history.
type Document struct {
	mu sync.RWMutex

	name  string
	path  string
	text  string
	perm  os.FileMode
	saved uint64

	version uint64

	undo       [][]Change
	redo       [][]Change
	maxHistory int

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int
}

// Option configures a Document.
type Option func(*Document)

// WithMaxHistory limits the undo stack depth.
func WithMaxHistory(n int) Option {
	return func(d *Document) {
		if n > 0 {
			d.maxHistory = n
		}
	}
}

// WithPath associates the document with a file path for Save.
func WithPath(path string) Option {
	return func(d *Document) {
		d.path = path
	}
}

// New creates an in-memory document.
func New(name, text string, opts ...Option) *Document {
	d := &Document{
		name:       name,
		text:       text,
		perm:       0o644,
		maxHistory: DefaultMaxHistory,
		listeners:  make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load reads a document from a file.
func Load(path string, opts ...Option) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	d := New(path, string(data), append([]Option{WithPath(path)}, opts...)...)
	d.perm = info.Mode().Perm()
	return d, nil
}

// Name returns the document name.
func (d *Document) Name() string {
	return d.name
}

// Path returns the backing file path, if any.
func (d *Document) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// Text returns the full text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Snapshot returns the text together with the version it belongs to.
func (d *Document) Snapshot() (string, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text, d.version
}

// Len returns the length in bytes.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text)
}

// Slice returns the text in [from, to), clamped to the document bounds.
func (d *Document) Slice(from, to int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if from < 0 {
		from = 0
	}
	if to > len(d.text) {
		to = len(d.text)
	}
	if from >= to {
		return ""
	}
	return d.text[from:to]
}

// Version returns the number of transactions applied so far.
func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Modified returns true if the text changed since the last load or save.
func (d *Document) Modified() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version != d.saved
}

// Position converts a byte offset into a 1-based line and column.
// Columns count bytes.
func (d *Document) Position(offset int) (line, col int) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if offset > len(d.text) {
		offset = len(d.text)
	}
	if offset < 0 {
		offset = 0
	}
	before := d.text[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - (strings.LastIndexByte(before, '\n') + 1) + 1
	return line, col
}

// Replace replaces [from, to) with text as a single-change transaction.
func (d *Document) Replace(from, to int, text string) (Transaction, error) {
	return d.Apply(Change{From: from, To: to, Insert: text})
}

// Apply commits changes as one transaction.
// An empty or all no-op set of changes commits nothing and returns a zero
// Transaction with the current version.
func (d *Document) Apply(changes ...Change) (Transaction, error) {
	return d.apply(changes, "edit")
}

// Undo reverts the most recent transaction.
func (d *Document) Undo() (Transaction, error) {
	d.mu.Lock()
	if len(d.undo) == 0 {
		d.mu.Unlock()
		return Transaction{}, ErrNothingToUndo
	}
	changes := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	tx, err := d.commitLocked(changes, "undo")
	if err == nil {
		d.redo = append(d.redo, tx.invert())
	}
	d.mu.Unlock()

	if err != nil {
		return Transaction{}, err
	}
	d.notify(tx)
	return tx, nil
}

// Redo reapplies the most recently undone transaction.
func (d *Document) Redo() (Transaction, error) {
	d.mu.Lock()
	if len(d.redo) == 0 {
		d.mu.Unlock()
		return Transaction{}, ErrNothingToRedo
	}
	changes := d.redo[len(d.redo)-1]
	d.redo = d.redo[:len(d.redo)-1]
	tx, err := d.commitLocked(changes, "redo")
	if err == nil {
		d.pushUndoLocked(tx.invert())
	}
	d.mu.Unlock()

	if err != nil {
		return Transaction{}, err
	}
	d.notify(tx)
	return tx, nil
}

// CanUndo returns true if there is a transaction to undo.
func (d *Document) CanUndo() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.undo) > 0
}

// CanRedo returns true if there is a transaction to redo.
func (d *Document) CanRedo() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.redo) > 0
}

// OnChange registers a listener and returns a function that removes it.
func (d *Document) OnChange(fn Listener) (remove func()) {
	d.listenerMu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.listenerMu.Unlock()

	return func() {
		d.listenerMu.Lock()
		delete(d.listeners, id)
		d.listenerMu.Unlock()
	}
}

// Save writes the text to the backing file.
func (d *Document) Save() error {
	d.mu.RLock()
	path := d.path
	d.mu.RUnlock()

	if path == "" {
		return ErrNoPath
	}
	return d.SaveAs(path)
}

// SaveAs writes the text to path and makes it the backing file.
// The file is written to a temporary sibling and renamed into place.
func (d *Document) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(d.text), d.perm); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("saving %s: %w", path, err)
	}

	d.path = path
	d.saved = d.version
	return nil
}

// Reload replaces the text with the backing file's content as a normal,
// undoable transaction. It is a no-op when the content is unchanged.
func (d *Document) Reload() (Transaction, error) {
	path := d.Path()
	if path == "" {
		return Transaction{}, ErrNoPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Transaction{}, fmt.Errorf("reloading %s: %w", path, err)
	}

	d.mu.Lock()
	if string(data) == d.text {
		v := d.version
		d.mu.Unlock()
		return Transaction{Version: v, Origin: "reload"}, nil
	}
	tx, err := d.commitLocked([]Change{{From: 0, To: len(d.text), Insert: string(data)}}, "reload")
	if err == nil {
		d.pushUndoLocked(tx.invert())
		d.redo = nil
		d.saved = d.version
	}
	d.mu.Unlock()

	if err != nil {
		return Transaction{}, err
	}
	d.notify(tx)
	return tx, nil
}

func (d *Document) apply(changes []Change, origin string) (Transaction, error) {
	d.mu.Lock()
	tx, err := d.commitLocked(changes, origin)
	if err == nil && len(tx.Changes) > 0 {
		d.pushUndoLocked(tx.invert())
		d.redo = nil
	}
	d.mu.Unlock()

	if err != nil {
		return Transaction{}, err
	}
	if len(tx.Changes) > 0 {
		d.notify(tx)
	}
	return tx, nil
}

// commitLocked applies changes to the text. Caller must hold d.mu.
func (d *Document) commitLocked(changes []Change, origin string) (Transaction, error) {
	norm, err := normalize(changes, len(d.text))
	if err != nil {
		return Transaction{}, err
	}
	if len(norm) == 0 {
		return Transaction{Version: d.version, Origin: origin}, nil
	}

	removed := make([]string, len(norm))
	var sb strings.Builder
	grow := len(d.text)
	for _, c := range norm {
		grow += c.Delta()
	}
	sb.Grow(grow)

	last := 0
	for i, c := range norm {
		removed[i] = d.text[c.From:c.To]
		sb.WriteString(d.text[last:c.From])
		sb.WriteString(c.Insert)
		last = c.To
	}
	sb.WriteString(d.text[last:])

	d.text = sb.String()
	d.version++

	return Transaction{
		Changes: norm,
		Removed: removed,
		Version: d.version,
		Origin:  origin,
	}, nil
}

// pushUndoLocked records an inverse, trimming the oldest entries.
func (d *Document) pushUndoLocked(inv []Change) {
	d.undo = append(d.undo, inv)
	if len(d.undo) > d.maxHistory {
		d.undo = d.undo[len(d.undo)-d.maxHistory:]
	}
}

func (d *Document) notify(tx Transaction) {
	d.listenerMu.Lock()
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	d.listenerMu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		d.listenerMu.Lock()
		fn, ok := d.listeners[id]
		d.listenerMu.Unlock()
		if ok {
			fn(tx)
		}
	}
}
