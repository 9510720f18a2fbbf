package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	s.SetSize(40, 4)
	t.Cleanup(s.Fini)
	return s
}

func TestPromptCommit(t *testing.T) {
	s := newTestScreen(t)
	s.InjectKey(tcell.KeyBackspace2, 0, tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	got, ok, err := Prompt(s, "region 1", "terces")
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if !ok {
		t.Fatal("expected commit")
	}
	if got != "tercex" {
		t.Errorf("value = %q, want tercex", got)
	}
}

func TestPromptCancel(t *testing.T) {
	s := newTestScreen(t)
	s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	got, ok, err := Prompt(s, "region 1", "terces")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected cancel")
	}
	if got != "terces" {
		t.Errorf("value = %q, want initial value", got)
	}
}

func TestFieldDraw(t *testing.T) {
	s := newTestScreen(t)

	f := NewField("terces")
	f.Draw(s, 2, 1, 10)
	s.Show()

	for i, want := range "terces" {
		mainc, _, _, _ := s.GetContent(2+i, 1) //nolint:staticcheck // GetContent is the correct API
		if mainc != want {
			t.Errorf("cell %d = %q, want %q", i, mainc, want)
		}
	}
	x, y, visible := s.GetCursor()
	if !visible || x != 8 || y != 1 {
		t.Errorf("cursor = (%d, %d, %v), want (8, 1, true)", x, y, visible)
	}
}

func TestFieldDrawScrolls(t *testing.T) {
	s := newTestScreen(t)

	f := NewField("abcdefghij")
	f.Draw(s, 0, 0, 5)
	s.Show()

	x, _, _ := s.GetCursor()
	if x != 4 {
		t.Errorf("cursor x = %d, want 4 (last column)", x)
	}
	mainc, _, _, _ := s.GetContent(0, 0) //nolint:staticcheck // GetContent is the correct API
	if mainc != 'g' {
		t.Errorf("first visible cell = %q, want 'g'", mainc)
	}
}
