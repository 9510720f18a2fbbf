package secret

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/veil/internal/codec"
	"github.com/dshills/veil/internal/document"
	"github.com/dshills/veil/internal/event"
	"github.com/dshills/veil/internal/markup"
)

// DefaultPlaceholder formats a widget's display value in View output.
const DefaultPlaceholder = "[%s]"

// Extension renders and commits secret regions of one document.
type Extension struct {
	doc         *document.Document
	bus         *event.Bus
	codec       codec.Codec
	scanner     *markup.Scanner
	placeholder string

	mu       sync.Mutex
	attached bool
	subs     []*event.Subscription
	unlisten func()

	// scan cache
	valid   bool
	version uint64
	scan    markup.Result
}

// Option configures an Extension.
type Option func(*Extension) error

// WithCodec replaces the default reversing codec.
func WithCodec(c codec.Codec) Option {
	return func(e *Extension) error {
		if c == nil {
			return fmt.Errorf("nil codec")
		}
		e.codec = c
		return nil
	}
}

// WithMarkers sets the region delimiters.
func WithMarkers(m markup.Markers) Option {
	return func(e *Extension) error {
		s, err := markup.NewScanner(m)
		if err != nil {
			return err
		}
		e.scanner = s
		return nil
	}
}

// WithPlaceholder sets the fmt format used by View for each widget.
// The format receives the display value as its only argument.
func WithPlaceholder(format string) Option {
	return func(e *Extension) error {
		if err := CheckPlaceholder(format); err != nil {
			return err
		}
		e.placeholder = format
		return nil
	}
}

// placeholderSample stands in for a display value when checking a format.
const placeholderSample = "\uFFFFdisplay\uFFFF"

// CheckPlaceholder reports whether format prints its single string argument
// exactly once and formats without fmt errors.
func CheckPlaceholder(format string) error {
	out := fmt.Sprintf(format, placeholderSample)
	if strings.Contains(out, "%!") || strings.Count(out, placeholderSample) != 1 {
		return fmt.Errorf("%w: %q must print the value once with a single %%s verb", ErrInvalidPlaceholder, format)
	}
	return nil
}

// New creates an extension for doc publishing on bus.
func New(doc *document.Document, bus *event.Bus, opts ...Option) (*Extension, error) {
	scanner, _ := markup.NewScanner(markup.DefaultMarkers())
	e := &Extension{
		doc:         doc,
		bus:         bus,
		codec:       codec.Default,
		scanner:     scanner,
		placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Attach registers the codec handlers on the bus and starts forwarding
// document transactions as document.changed events.
func (e *Extension) Attach() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attached {
		return ErrAlreadyAttached
	}

	handlers := []struct {
		topic event.Topic
		fn    event.HandlerFunc
	}{
		{TopicRender, e.handleRender},
		{TopicCommit, e.handleCommit},
		{TopicDocumentChanged, e.handleDocumentChanged},
	}

	subs := make([]*event.Subscription, 0, len(handlers))
	for _, h := range handlers {
		sub, err := e.bus.SubscribeFunc(h.topic, h.fn,
			event.WithPriority(event.PriorityCritical),
			event.WithName("secret."+h.topic.String()),
		)
		if err != nil {
			for _, s := range subs {
				_ = e.bus.Unsubscribe(s)
			}
			return err
		}
		subs = append(subs, sub)
	}

	e.unlisten = e.doc.OnChange(func(tx document.Transaction) {
		_ = e.bus.Publish(context.Background(), TopicDocumentChanged, &DocumentChanged{
			Document:    e.doc.Name(),
			Transaction: tx,
		})
	})

	e.subs = subs
	e.attached = true
	e.valid = false
	return nil
}

// Detach removes the extension's handlers.
func (e *Extension) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.attached {
		return
	}
	for _, s := range e.subs {
		_ = e.bus.Unsubscribe(s)
	}
	e.subs = nil
	if e.unlisten != nil {
		e.unlisten()
		e.unlisten = nil
	}
	e.attached = false
}

// Markers returns the delimiters the extension scans for.
func (e *Extension) Markers() markup.Markers {
	return e.scanner.Markers()
}

// Unterminated returns the offsets of opening markers without a closing
// marker. They are never rendered.
func (e *Extension) Unterminated() []int {
	res, _, _ := e.current()
	out := make([]int, len(res.Unterminated))
	copy(out, res.Unterminated)
	return out
}

// Regions returns the regions of the current document text.
func (e *Extension) Regions() []markup.Region {
	res, _, _ := e.current()
	out := make([]markup.Region, len(res.Regions))
	copy(out, res.Regions)
	return out
}

// Render publishes region.render for every region and returns the widgets.
func (e *Extension) Render(ctx context.Context) ([]Widget, error) {
	widgets, _, err := e.renderAll(ctx)
	return widgets, err
}

func (e *Extension) renderAll(ctx context.Context) ([]Widget, string, error) {
	if !e.isAttached() {
		return nil, "", ErrNotAttached
	}

	res, text, version := e.current()
	widgets := make([]Widget, 0, len(res.Regions))
	for i, r := range res.Regions {
		w, err := e.render(ctx, i, r, text, version)
		if err != nil {
			return nil, "", err
		}
		widgets = append(widgets, w)
	}
	return widgets, text, nil
}

// Widget renders a single region.
func (e *Extension) Widget(ctx context.Context, index int) (Widget, error) {
	if !e.isAttached() {
		return Widget{}, ErrNotAttached
	}

	res, text, version := e.current()
	if index < 0 || index >= len(res.Regions) {
		return Widget{}, fmt.Errorf("%w: %d of %d", ErrNoSuchRegion, index, len(res.Regions))
	}
	return e.render(ctx, index, res.Regions[index], text, version)
}

// Commit writes the user's edited obfuscated value into region index.
func (e *Extension) Commit(ctx context.Context, index int, edited codec.ObfuscatedText) (Widget, error) {
	if !e.isAttached() {
		return Widget{}, ErrNotAttached
	}

	res, text, _ := e.current()
	if index < 0 || index >= len(res.Regions) {
		return Widget{}, fmt.Errorf("%w: %d of %d", ErrNoSuchRegion, index, len(res.Regions))
	}
	return e.commit(ctx, index, res.Regions[index], text, edited)
}

// CommitWidget commits an edit made to a previously rendered widget. It
// fails with ErrStaleRegion if the document no longer holds the same
// region with the same content at the same place.
func (e *Extension) CommitWidget(ctx context.Context, w Widget, edited codec.ObfuscatedText) (Widget, error) {
	if !e.isAttached() {
		return Widget{}, ErrNotAttached
	}

	res, text, _ := e.current()
	if w.Index < 0 || w.Index >= len(res.Regions) ||
		res.Regions[w.Index] != w.Region ||
		w.Region.Text(text) != w.Plain {
		return Widget{}, fmt.Errorf("%w: %s", ErrStaleRegion, w.Region)
	}
	return e.commit(ctx, w.Index, w.Region, text, edited)
}

// View returns the document text with every region replaced by the
// placeholder formatted with its display value.
func (e *Extension) View(ctx context.Context) (string, error) {
	widgets, text, err := e.renderAll(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, w := range widgets {
		sb.WriteString(text[last:w.Region.TagFrom])
		fmt.Fprintf(&sb, e.placeholder, w.Display)
		last = w.Region.TagTo
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}

func (e *Extension) render(ctx context.Context, index int, r markup.Region, text string, version uint64) (Widget, error) {
	req := &RenderRequest{
		Document: e.doc.Name(),
		Index:    index,
		Region:   r,
		Plain:    r.Text(text),
	}
	if err := e.bus.Publish(ctx, TopicRender, req); err != nil {
		return Widget{}, fmt.Errorf("rendering region %d: %w", index, err)
	}
	return Widget{
		Index:   index,
		Region:  r,
		Plain:   req.Plain,
		Display: req.Display,
		Version: version,
	}, nil
}

func (e *Extension) commit(ctx context.Context, index int, r markup.Region, text string, edited string) (Widget, error) {
	req := &CommitRequest{
		Document: e.doc.Name(),
		Index:    index,
		Region:   r,
		Previous: r.Text(text),
		Edited:   edited,
	}
	if err := e.bus.Publish(ctx, TopicCommit, req); err != nil {
		return Widget{}, fmt.Errorf("committing region %d: %w", index, err)
	}

	// The closing marker must first match where the region ends, including
	// matches that straddle the new content and the marker itself.
	closing := e.scanner.Markers().Close
	if strings.Index(req.Plain+closing, closing) != len(req.Plain) {
		return Widget{}, fmt.Errorf("committing region %d: %w", index, ErrMarkerInContent)
	}

	var tx document.Transaction
	if req.Plain != req.Previous {
		var err error
		tx, err = e.doc.Replace(r.ContentFrom, r.ContentTo, req.Plain)
		if err != nil {
			return Widget{}, fmt.Errorf("committing region %d: %w", index, err)
		}
	}

	delta := len(req.Plain) - r.Content().Len()
	updated := markup.Region{
		TagFrom:     r.TagFrom,
		ContentFrom: r.ContentFrom,
		ContentTo:   r.ContentTo + delta,
		TagTo:       r.TagTo + delta,
	}

	w := Widget{
		Index:   index,
		Region:  updated,
		Plain:   req.Plain,
		Display: e.codec.Obfuscate(req.Plain),
		Version: e.doc.Version(),
	}

	if len(tx.Changes) == 0 {
		return w, nil
	}

	// The document already holds the new value; an observer error is
	// reported alongside the updated widget.
	if err := e.bus.Publish(ctx, TopicCommitted, &Committed{
		Document:    e.doc.Name(),
		Index:       index,
		Region:      updated,
		Plain:       req.Plain,
		Transaction: tx,
	}); err != nil {
		return w, fmt.Errorf("notifying commit of region %d: %w", index, err)
	}
	return w, nil
}

func (e *Extension) handleRender(_ context.Context, env event.Envelope) error {
	req, ok := env.Payload.(*RenderRequest)
	if !ok {
		return fmt.Errorf("unexpected %s payload %T", env.Topic, env.Payload)
	}
	req.Display = e.codec.Obfuscate(req.Plain)
	return nil
}

func (e *Extension) handleCommit(_ context.Context, env event.Envelope) error {
	req, ok := env.Payload.(*CommitRequest)
	if !ok {
		return fmt.Errorf("unexpected %s payload %T", env.Topic, env.Payload)
	}
	req.Plain = e.codec.Deobfuscate(req.Edited)
	return nil
}

func (e *Extension) handleDocumentChanged(_ context.Context, env event.Envelope) error {
	if dc, ok := env.Payload.(*DocumentChanged); ok && dc.Document != e.doc.Name() {
		return nil
	}
	e.mu.Lock()
	e.valid = false
	e.mu.Unlock()
	return nil
}

// current returns the scan of the current text, rescanning when stale.
func (e *Extension) current() (markup.Result, string, uint64) {
	text, version := e.doc.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.valid || e.version != version {
		e.scan = e.scanner.Scan(text)
		e.version = version
		e.valid = true
	}
	return e.scan, text, version
}

func (e *Extension) isAttached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attached
}
