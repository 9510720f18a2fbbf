package secret

import (
	"fmt"

	"github.com/dshills/veil/internal/markup"
)

// Widget is the editable view of one secret region.
type Widget struct {
	// Index is the region's position among the document's regions.
	Index int

	// Region locates the markers and content in the document.
	Region markup.Region

	// Plain is the content as stored in the document.
	Plain string

	// Display is the obfuscated value shown to the user.
	Display string

	// Version is the document version the widget was built from.
	Version uint64
}

// String returns a one-line description.
func (w Widget) String() string {
	return fmt.Sprintf("#%d %s %q", w.Index, w.Region.Content(), w.Display)
}
