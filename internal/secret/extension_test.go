package secret

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/veil/internal/document"
	"github.com/dshills/veil/internal/event"
	"github.com/dshills/veil/internal/markup"
)

func newTestExtension(t *testing.T, text string, opts ...Option) (*Extension, *document.Document, *event.Bus) {
	t.Helper()

	doc := document.New("note.md", text)
	bus := event.NewBus()
	ext, err := New(doc, bus, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ext.Attach(); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(ext.Detach)
	return ext, doc, bus
}

func TestRender(t *testing.T) {
	ext, _, _ := newTestExtension(t, "a <secret>secret</secret> b <secret>ab cd</secret>")

	widgets, err := ext.Render(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(widgets) != 2 {
		t.Fatalf("got %d widgets, want 2", len(widgets))
	}

	want := []struct{ plain, display string }{
		{"secret", "terces"},
		{"ab cd", "dc ba"},
	}
	for i, w := range widgets {
		if w.Index != i {
			t.Errorf("widget %d Index = %d", i, w.Index)
		}
		if w.Plain != want[i].plain || w.Display != want[i].display {
			t.Errorf("widget %d = %q/%q, want %q/%q", i, w.Plain, w.Display, want[i].plain, want[i].display)
		}
	}
}

func TestRenderRequiresAttach(t *testing.T) {
	doc := document.New("note.md", "<secret>x</secret>")
	ext, err := New(doc, event.NewBus())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ext.Render(context.Background()); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Render error = %v, want ErrNotAttached", err)
	}
	if _, err := ext.Commit(context.Background(), 0, "y"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Commit error = %v, want ErrNotAttached", err)
	}

	if err := ext.Attach(); err != nil {
		t.Fatal(err)
	}
	if err := ext.Attach(); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("second Attach error = %v, want ErrAlreadyAttached", err)
	}
	ext.Detach()
	if _, err := ext.Render(context.Background()); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Render after Detach error = %v, want ErrNotAttached", err)
	}
}

func TestCommit(t *testing.T) {
	ext, doc, _ := newTestExtension(t, "pw: <secret>old</secret>; pin: <secret>1234</secret>")

	w, err := ext.Commit(context.Background(), 0, "terces")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	want := "pw: <secret>secret</secret>; pin: <secret>1234</secret>"
	if got := doc.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if w.Plain != "secret" || w.Display != "terces" {
		t.Errorf("widget = %q/%q, want secret/terces", w.Plain, w.Display)
	}
	if got := w.Region.Text(doc.Text()); got != "secret" {
		t.Errorf("updated region text = %q, want secret", got)
	}
	if doc.Text()[w.Region.TagFrom:w.Region.TagTo] != "<secret>secret</secret>" {
		t.Errorf("updated tag span = %q", doc.Text()[w.Region.TagFrom:w.Region.TagTo])
	}

	// The second region moved; a fresh render sees it at its new place.
	widgets, err := ext.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if widgets[1].Plain != "1234" || widgets[1].Display != "4321" {
		t.Errorf("second widget = %+v", widgets[1])
	}
}

func TestCommitEmptyAndUnicode(t *testing.T) {
	ext, doc, _ := newTestExtension(t, "<secret>x</secret>")

	if _, err := ext.Commit(context.Background(), 0, ""); err != nil {
		t.Fatalf("Commit empty failed: %v", err)
	}
	if doc.Text() != "<secret></secret>" {
		t.Errorf("Text() = %q", doc.Text())
	}

	if _, err := ext.Commit(context.Background(), 0, "語本日"); err != nil {
		t.Fatalf("Commit unicode failed: %v", err)
	}
	if doc.Text() != "<secret>日本語</secret>" {
		t.Errorf("Text() = %q", doc.Text())
	}
}

func TestCommitNoSuchRegion(t *testing.T) {
	ext, _, _ := newTestExtension(t, "<secret>x</secret>")

	for _, idx := range []int{-1, 1, 5} {
		if _, err := ext.Commit(context.Background(), idx, "y"); !errors.Is(err, ErrNoSuchRegion) {
			t.Errorf("Commit(%d) error = %v, want ErrNoSuchRegion", idx, err)
		}
	}
	if _, err := ext.Widget(context.Background(), 3); !errors.Is(err, ErrNoSuchRegion) {
		t.Errorf("Widget(3) error = %v, want ErrNoSuchRegion", err)
	}
}

func TestCommitRejectsClosingMarker(t *testing.T) {
	braces := markup.Markers{Open: "{{", Close: "}}"}

	tests := []struct {
		name    string
		text    string
		markers markup.Markers
		edited  string
	}{
		// Reversed form of "a</secret>b".
		{"marker inside value", "<secret>x</secret>", markup.DefaultMarkers(), "b>terces/<a"},
		{"marker inside value with braces", "a {{pw}} b", braces, "}}"},
		// "x}" followed by "}}" closes one byte early.
		{"marker across value end", "a {{pw}} b", braces, "}x"},
		{"lone brace before marker", "a {{pw}} b", braces, "}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, doc, _ := newTestExtension(t, tt.text, WithMarkers(tt.markers))

			if _, err := ext.Commit(context.Background(), 0, tt.edited); !errors.Is(err, ErrMarkerInContent) {
				t.Fatalf("Commit error = %v, want ErrMarkerInContent", err)
			}
			if doc.Text() != tt.text {
				t.Errorf("rejected commit modified the document: %q", doc.Text())
			}
		})
	}
}

func TestCommitRoundTripWithBraceMarkers(t *testing.T) {
	ext, doc, _ := newTestExtension(t, "a {{pw}} b", WithMarkers(markup.Markers{Open: "{{", Close: "}}"}))
	ctx := context.Background()

	w, err := ext.Commit(ctx, 0, "{x")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "a {{x{}} b" {
		t.Errorf("document = %q", doc.Text())
	}

	again, err := ext.Widget(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if again.Plain != w.Plain || again.Plain != "x{" {
		t.Errorf("re-rendered Plain = %q, committed %q", again.Plain, w.Plain)
	}
}

func TestCommitVeto(t *testing.T) {
	ext, doc, bus := newTestExtension(t, "<secret>keep</secret>")
	veto := errors.New("empty secrets are not allowed")

	var seen *CommitRequest
	_, err := bus.SubscribeFunc(TopicCommit, func(_ context.Context, env event.Envelope) error {
		seen = env.Payload.(*CommitRequest)
		if seen.Plain == "" {
			return veto
		}
		return nil
	}, event.WithPriority(event.PriorityHigh))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ext.Commit(context.Background(), 0, ""); !errors.Is(err, veto) {
		t.Fatalf("Commit error = %v, want veto", err)
	}
	if doc.Text() != "<secret>keep</secret>" {
		t.Error("vetoed commit must not modify the document")
	}

	if _, err := ext.Commit(context.Background(), 0, "wen"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if seen.Previous != "keep" || seen.Edited != "wen" || seen.Plain != "new" {
		t.Errorf("validator saw %+v", seen)
	}
}

func TestCommitWidgetStale(t *testing.T) {
	ext, doc, _ := newTestExtension(t, "<secret>abc</secret>")

	w, err := ext.Widget(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}

	// Someone else edits the content before the user commits.
	if _, err := doc.Replace(w.Region.ContentFrom, w.Region.ContentTo, "zzz"); err != nil {
		t.Fatal(err)
	}

	if _, err := ext.CommitWidget(context.Background(), w, "yx"); !errors.Is(err, ErrStaleRegion) {
		t.Fatalf("CommitWidget error = %v, want ErrStaleRegion", err)
	}

	fresh, err := ext.Widget(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ext.CommitWidget(context.Background(), fresh, "yx"); err != nil {
		t.Fatalf("CommitWidget failed: %v", err)
	}
	if doc.Text() != "<secret>xy</secret>" {
		t.Errorf("Text() = %q", doc.Text())
	}
}

func TestEventsPublished(t *testing.T) {
	ext, _, bus := newTestExtension(t, "<secret>a</secret>")

	var topics []event.Topic
	_, err := bus.SubscribeFunc("**", func(_ context.Context, env event.Envelope) error {
		topics = append(topics, env.Topic)
		return nil
	}, event.WithPriority(event.PriorityLow))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ext.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := ext.Commit(context.Background(), 0, "b"); err != nil {
		t.Fatal(err)
	}

	want := []event.Topic{TopicRender, TopicCommit, TopicDocumentChanged, TopicCommitted}
	if len(topics) != len(want) {
		t.Fatalf("topics = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics = %v, want %v", topics, want)
			break
		}
	}
}

func TestUnchangedCommitIsSilent(t *testing.T) {
	ext, doc, bus := newTestExtension(t, "<secret>same</secret>")
	committed := 0
	_, _ = bus.SubscribeFunc(TopicCommitted, func(context.Context, event.Envelope) error {
		committed++
		return nil
	})

	if _, err := ext.Commit(context.Background(), 0, "emas"); err != nil {
		t.Fatal(err)
	}
	if committed != 0 || doc.Version() != 0 {
		t.Error("committing the current value should not change the document")
	}
}

func TestView(t *testing.T) {
	ext, _, _ := newTestExtension(t, "pw: <secret>hunter2</secret>, pin <secret>12</secret>.")

	got, err := ext.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := "pw: [2retnuh], pin [21]."
	if got != want {
		t.Errorf("View() = %q, want %q", got, want)
	}
}

func TestViewPlaceholderAndMarkers(t *testing.T) {
	ext, _, _ := newTestExtension(t, "x {{abc}} y <secret>no</secret>",
		WithMarkers(markup.Markers{Open: "{{", Close: "}}"}),
		WithPlaceholder("«%s»"),
	)

	got, err := ext.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "x «cba» y <secret>no</secret>" {
		t.Errorf("View() = %q", got)
	}
}

func TestUnterminatedNotRendered(t *testing.T) {
	ext, _, bus := newTestExtension(t, "<secret>ok</secret> <secret>open")

	renders := 0
	_, _ = bus.SubscribeFunc(TopicRender, func(context.Context, event.Envelope) error {
		renders++
		return nil
	})

	widgets, err := ext.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(widgets) != 1 || renders != 1 {
		t.Errorf("widgets = %d renders = %d, want 1 each", len(widgets), renders)
	}
	if u := ext.Unterminated(); len(u) != 1 || u[0] != 20 {
		t.Errorf("Unterminated() = %v, want [20]", u)
	}

	view, _ := ext.View(context.Background())
	if !strings.HasSuffix(view, "<secret>open") {
		t.Errorf("unterminated text should be left as is, view = %q", view)
	}
}

func TestRescanAfterExternalEdit(t *testing.T) {
	ext, doc, _ := newTestExtension(t, "none yet")

	if n := len(ext.Regions()); n != 0 {
		t.Fatalf("Regions() = %d, want 0", n)
	}
	if _, err := doc.Replace(doc.Len(), doc.Len(), " <secret>new</secret>"); err != nil {
		t.Fatal(err)
	}
	if n := len(ext.Regions()); n != 1 {
		t.Errorf("Regions() after edit = %d, want 1", n)
	}
}

func TestOptionErrors(t *testing.T) {
	doc := document.New("n", "")
	bus := event.NewBus()

	if _, err := New(doc, bus, WithMarkers(markup.Markers{})); !errors.Is(err, markup.ErrInvalidMarkers) {
		t.Errorf("WithMarkers error = %v, want ErrInvalidMarkers", err)
	}
	for _, format := range []string{"no verb", "%d %s", "%%s", "%s %s", "%.0s"} {
		if _, err := New(doc, bus, WithPlaceholder(format)); !errors.Is(err, ErrInvalidPlaceholder) {
			t.Errorf("WithPlaceholder(%q) error = %v, want ErrInvalidPlaceholder", format, err)
		}
	}
	for _, format := range []string{"[%s]", "%v", "100%% %s"} {
		if err := CheckPlaceholder(format); err != nil {
			t.Errorf("CheckPlaceholder(%q) = %v", format, err)
		}
	}
	if _, err := New(doc, bus, WithCodec(nil)); err == nil {
		t.Error("WithCodec(nil) should fail")
	}
}

type upperCodec struct{}

func (upperCodec) Obfuscate(s string) string   { return strings.ToUpper(s) }
func (upperCodec) Deobfuscate(s string) string { return strings.ToLower(s) }

func TestWithCodec(t *testing.T) {
	ext, doc, _ := newTestExtension(t, "<secret>abc</secret>", WithCodec(upperCodec{}))

	w, err := ext.Widget(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if w.Display != "ABC" {
		t.Errorf("Display = %q, want ABC", w.Display)
	}
	if _, err := ext.Commit(context.Background(), 0, "XYZ"); err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "<secret>xyz</secret>" {
		t.Errorf("Text() = %q", doc.Text())
	}
}
