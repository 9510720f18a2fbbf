package app

import (
	"context"

	"github.com/dshills/veil/internal/codec"
	"github.com/dshills/veil/internal/document"
	"github.com/dshills/veil/internal/secret"
)

// Location is a byte offset with its 1-based line and byte column.
type Location struct {
	Offset int
	Line   int
	Col    int
}

// Session is one open document with its secret extension.
type Session struct {
	app *Application
	doc *document.Document
	ext *secret.Extension
	log *Logger
}

func newSession(app *Application, path string) (*Session, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}

	ext, err := secret.New(doc, app.bus,
		secret.WithMarkers(app.config.Markup().Markers()),
		secret.WithPlaceholder(app.config.Render().Placeholder),
	)
	if err != nil {
		return nil, err
	}
	if err := ext.Attach(); err != nil {
		return nil, err
	}

	return &Session{
		app: app,
		doc: doc,
		ext: ext,
		log: app.logger.WithField("document", doc.Name()),
	}, nil
}

// Document returns the underlying document.
func (s *Session) Document() *document.Document {
	return s.doc
}

// Extension returns the secret extension bound to the document.
func (s *Session) Extension() *secret.Extension {
	return s.ext
}

// Locate converts a byte offset to a Location.
func (s *Session) Locate(offset int) Location {
	line, col := s.doc.Position(offset)
	return Location{Offset: offset, Line: line, Col: col}
}

// Unterminated returns the locations of opening markers with no closing marker.
func (s *Session) Unterminated() []Location {
	offsets := s.ext.Unterminated()
	locs := make([]Location, len(offsets))
	for i, off := range offsets {
		locs[i] = s.Locate(off)
	}
	return locs
}

// Widgets renders every region.
func (s *Session) Widgets(ctx context.Context) ([]secret.Widget, error) {
	ws, err := s.ext.Render(ctx)
	if err != nil {
		return nil, NewOperationError("render", s.doc.Name(), err)
	}
	return ws, nil
}

// View returns the document with regions replaced by their placeholders.
func (s *Session) View(ctx context.Context) (string, error) {
	v, err := s.ext.View(ctx)
	if err != nil {
		return "", NewOperationError("render", s.doc.Name(), err)
	}
	return v, nil
}

// Commit writes an edited display value into region index.
func (s *Session) Commit(ctx context.Context, index int, edited codec.ObfuscatedText) (secret.Widget, error) {
	w, err := s.ext.Commit(ctx, index, edited)
	if err != nil {
		return w, NewOperationError("commit", s.doc.Name(), err)
	}
	return w, nil
}

// CommitWidget writes an edit made to a previously rendered widget.
func (s *Session) CommitWidget(ctx context.Context, w secret.Widget, edited codec.ObfuscatedText) (secret.Widget, error) {
	out, err := s.ext.CommitWidget(ctx, w, edited)
	if err != nil {
		return out, NewOperationError("commit", s.doc.Name(), err)
	}
	return out, nil
}

// Save writes the document if it was modified. It reports whether it wrote.
func (s *Session) Save() (bool, error) {
	if !s.doc.Modified() {
		return false, nil
	}
	if err := s.doc.Save(); err != nil {
		return false, NewOperationError("save", s.doc.Name(), err)
	}
	s.log.Debug("saved")
	return true, nil
}

// Reload re-reads the file and reports whether the text changed.
func (s *Session) Reload() (bool, error) {
	tx, err := s.doc.Reload()
	if err != nil {
		return false, NewOperationError("reload", s.doc.Name(), err)
	}
	return len(tx.Changes) > 0, nil
}

// Close detaches the extension. Unsaved changes are reported and kept
// out of the file.
func (s *Session) Close() error {
	s.ext.Detach()
	s.app.forget(s)
	if s.doc.Modified() {
		return NewOperationError("close", s.doc.Name(), ErrUnsavedChanges)
	}
	return nil
}
