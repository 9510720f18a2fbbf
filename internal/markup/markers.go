package markup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMarkers is returned when a marker pair cannot delimit regions.
var ErrInvalidMarkers = errors.New("invalid region markers")

// DefaultTag is the tag name recognised when nothing else is configured.
const DefaultTag = "secret"

// Markers is the delimiter pair around secret content.
type Markers struct {
	Open  string
	Close string
}

// DefaultMarkers returns the <secret> ... </secret> pair.
func DefaultMarkers() Markers {
	return TagMarkers(DefaultTag)
}

// TagMarkers returns the HTML-style pair <name> ... </name>.
func TagMarkers(name string) Markers {
	return Markers{
		Open:  "<" + name + ">",
		Close: "</" + name + ">",
	}
}

// Validate reports whether the pair is usable.
func (m Markers) Validate() error {
	switch {
	case m.Open == "":
		return fmt.Errorf("%w: empty opening marker", ErrInvalidMarkers)
	case m.Close == "":
		return fmt.Errorf("%w: empty closing marker", ErrInvalidMarkers)
	case m.Open == m.Close:
		return fmt.Errorf("%w: opening and closing markers are identical (%q)", ErrInvalidMarkers, m.Open)
	case strings.Contains(m.Close, m.Open):
		return fmt.Errorf("%w: closing marker %q contains opening marker %q", ErrInvalidMarkers, m.Close, m.Open)
	}
	return nil
}

// String returns "open...close".
func (m Markers) String() string {
	return m.Open + "..." + m.Close
}
