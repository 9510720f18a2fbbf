package term

import (
	"errors"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// ErrScreenClosed is returned when the screen stops delivering events
// before the edit finishes.
var ErrScreenClosed = errors.New("screen closed")

var (
	labelStyle = tcell.StyleDefault.Bold(true)
	hintStyle  = tcell.StyleDefault.Dim(true)
	fieldStyle = tcell.StyleDefault.Reverse(true)
)

const hint = "Enter: save  Esc: cancel"

// Prompt edits initial in a field on screen until the user commits or
// cancels. It returns the edited value and true on commit.
// The screen must already be initialised.
func Prompt(screen tcell.Screen, label, initial string) (string, bool, error) {
	f := NewField(initial)
	f.Style = fieldStyle

	for {
		drawPrompt(screen, label, f)

		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return f.Text(), false, ErrScreenClosed
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			switch f.HandleKey(ev) {
			case ActionCommit:
				return f.Text(), true, nil
			case ActionCancel:
				return initial, false, nil
			}
		}
	}
}

func drawPrompt(screen tcell.Screen, label string, f *Field) {
	screen.Clear()
	width, _ := screen.Size()

	col := drawString(screen, 0, 0, label, labelStyle)
	col += drawString(screen, col, 0, ": ", labelStyle)
	f.Draw(screen, col, 0, width-col)
	drawString(screen, 0, 1, hint, hintStyle)

	screen.Show()
}

// drawString draws s at (x, y) and returns the columns used.
func drawString(screen tcell.Screen, x, y int, s string, style tcell.Style) int {
	col := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		runes := []rune(cluster)
		screen.SetContent(x+col, y, runes[0], runes[1:], style)
		col += w
	}
	return col
}
