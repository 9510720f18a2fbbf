package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Action is the outcome of handling a key.
type Action int

const (
	// ActionNone means editing continues.
	ActionNone Action = iota
	// ActionCommit means the user accepted the value.
	ActionCommit
	// ActionCancel means the user abandoned the edit.
	ActionCancel
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCommit:
		return "commit"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Field is a single-line text field. The cursor is a byte offset that
// always sits on a grapheme cluster boundary.
type Field struct {
	text   string
	cursor int

	Style tcell.Style
}

// NewField creates a field holding text with the cursor at the end.
func NewField(text string) *Field {
	return &Field{
		text:   text,
		cursor: len(text),
		Style:  tcell.StyleDefault,
	}
}

// Text returns the current value.
func (f *Field) Text() string {
	return f.text
}

// Cursor returns the cursor byte offset.
func (f *Field) Cursor() int {
	return f.cursor
}

// SetText replaces the value and moves the cursor to the end.
func (f *Field) SetText(text string) {
	f.text = text
	f.cursor = len(text)
}

// CursorColumn returns the display column of the cursor.
func (f *Field) CursorColumn() int {
	return uniseg.StringWidth(f.text[:f.cursor])
}

// HandleKey applies a key event and reports whether editing is finished.
func (f *Field) HandleKey(ev *tcell.EventKey) Action {
	switch {
	case ev.Key() == tcell.KeyEnter:
		return ActionCommit
	case ev.Key() == tcell.KeyEscape || isCtrl(ev, 'c', tcell.KeyCtrlC):
		return ActionCancel
	case ev.Key() == tcell.KeyBackspace || ev.Key() == tcell.KeyBackspace2:
		f.deleteBackward()
	case ev.Key() == tcell.KeyDelete || isCtrl(ev, 'd', tcell.KeyCtrlD):
		f.deleteForward()
	case ev.Key() == tcell.KeyLeft || isCtrl(ev, 'b', tcell.KeyCtrlB):
		f.cursor = f.prevBoundary(f.cursor)
	case ev.Key() == tcell.KeyRight || isCtrl(ev, 'f', tcell.KeyCtrlF):
		f.cursor = f.nextBoundary(f.cursor)
	case ev.Key() == tcell.KeyHome || isCtrl(ev, 'a', tcell.KeyCtrlA):
		f.cursor = 0
	case ev.Key() == tcell.KeyEnd || isCtrl(ev, 'e', tcell.KeyCtrlE):
		f.cursor = len(f.text)
	case isCtrl(ev, 'u', tcell.KeyCtrlU):
		f.text = f.text[f.cursor:]
		f.cursor = 0
	case isCtrl(ev, 'k', tcell.KeyCtrlK):
		f.text = f.text[:f.cursor]
	case ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) == 0:
		f.Insert(string(ev.Rune()))
	}
	return ActionNone
}

// Insert inserts s at the cursor.
func (f *Field) Insert(s string) {
	f.text = f.text[:f.cursor] + s + f.text[f.cursor:]
	f.cursor = f.snap(f.cursor + len(s))
}

func (f *Field) deleteBackward() {
	if f.cursor == 0 {
		return
	}
	prev := f.prevBoundary(f.cursor)
	f.text = f.text[:prev] + f.text[f.cursor:]
	f.cursor = prev
}

func (f *Field) deleteForward() {
	if f.cursor == len(f.text) {
		return
	}
	next := f.nextBoundary(f.cursor)
	f.text = f.text[:f.cursor] + f.text[next:]
}

// boundaries returns the start offset of every grapheme cluster plus len(text).
func (f *Field) boundaries() []int {
	bounds := []int{0}
	rest := f.text
	state := -1
	offset := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		offset += len(cluster)
		bounds = append(bounds, offset)
	}
	return bounds
}

func (f *Field) prevBoundary(off int) int {
	prev := 0
	for _, b := range f.boundaries() {
		if b >= off {
			break
		}
		prev = b
	}
	return prev
}

func (f *Field) nextBoundary(off int) int {
	for _, b := range f.boundaries() {
		if b > off {
			return b
		}
	}
	return len(f.text)
}

// snap moves off forward to the nearest cluster boundary. An inserted
// combining mark joins the cluster before it, so the cursor ends after it.
func (f *Field) snap(off int) int {
	for _, b := range f.boundaries() {
		if b >= off {
			return b
		}
	}
	return len(f.text)
}

// Draw renders the field at (x, y) within width columns, scrolling so the
// cursor stays visible, and places the terminal cursor.
func (f *Field) Draw(screen tcell.Screen, x, y, width int) {
	if width <= 0 {
		return
	}
	for col := 0; col < width; col++ {
		screen.SetContent(x+col, y, ' ', nil, f.Style)
	}

	// Skip leading clusters until the cursor fits.
	cursorCol := f.CursorColumn()
	skip := 0
	rest := f.text
	state := -1
	for cursorCol-skip >= width && len(rest) > 0 {
		var w int
		_, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		skip += w
	}

	col := 0
	state = -1
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if col+w > width {
			break
		}
		runes := []rune(cluster)
		screen.SetContent(x+col, y, runes[0], runes[1:], f.Style)
		col += w
	}

	screen.ShowCursor(x+cursorCol-skip, y)
}

// isCtrl matches a control key in either of the forms tcell reports it.
func isCtrl(ev *tcell.EventKey, letter rune, key tcell.Key) bool {
	if ev.Key() == key {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 &&
		(ev.Rune() == letter || ev.Rune() == letter-'a'+'A')
}
