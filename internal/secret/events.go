package secret

import (
	"github.com/dshills/veil/internal/document"
	"github.com/dshills/veil/internal/event"
	"github.com/dshills/veil/internal/markup"
)

// Topics published by the extension.
const (
	TopicRender          event.Topic = "region.render"
	TopicCommit          event.Topic = "region.commit"
	TopicCommitted       event.Topic = "region.committed"
	TopicDocumentChanged event.Topic = "document.changed"
)

// RenderRequest is the payload of region.render.
// Handlers at critical priority fill Display; later handlers may read it.
type RenderRequest struct {
	Document string
	Index    int
	Region   markup.Region
	Plain    string
	Display  string
}

// CommitRequest is the payload of region.commit.
// The codec handler fills Plain from Edited at critical priority, so
// validators running later see both.
type CommitRequest struct {
	Document string
	Index    int
	Region   markup.Region
	Previous string
	Edited   string
	Plain    string
}

// Committed is the payload of region.committed.
type Committed struct {
	Document    string
	Index       int
	Region      markup.Region
	Plain       string
	Transaction document.Transaction
}

// DocumentChanged is the payload of document.changed.
type DocumentChanged struct {
	Document    string
	Transaction document.Transaction
}
