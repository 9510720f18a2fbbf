package markup

import "fmt"

// Span is a half-open byte range [From, To).
type Span struct {
	From int
	To   int
}

// Len returns the number of bytes in the span.
func (s Span) Len() int {
	return s.To - s.From
}

// IsEmpty returns true if the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.To <= s.From
}

// Contains returns true if offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.From && offset < s.To
}

// String returns "[from, to)".
func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.From, s.To)
}

// Region is one secret span located in a text.
// All offsets are byte offsets into the scanned text.
type Region struct {
	// TagFrom is the start of the opening marker.
	TagFrom int
	// ContentFrom is the first byte after the opening marker.
	ContentFrom int
	// ContentTo is the start of the closing marker.
	ContentTo int
	// TagTo is the first byte after the closing marker.
	TagTo int
}

// Tag returns the span covering both markers and the content.
func (r Region) Tag() Span {
	return Span{From: r.TagFrom, To: r.TagTo}
}

// Content returns the span strictly between the markers.
func (r Region) Content() Span {
	return Span{From: r.ContentFrom, To: r.ContentTo}
}

// Text returns the region's content within text.
// The caller must pass the text the region was scanned from.
func (r Region) Text(text string) string {
	if r.ContentFrom < 0 || r.ContentTo > len(text) || r.ContentFrom > r.ContentTo {
		return ""
	}
	return text[r.ContentFrom:r.ContentTo]
}

// Shift returns the region moved by delta bytes.
func (r Region) Shift(delta int) Region {
	return Region{
		TagFrom:     r.TagFrom + delta,
		ContentFrom: r.ContentFrom + delta,
		ContentTo:   r.ContentTo + delta,
		TagTo:       r.TagTo + delta,
	}
}

// String returns a compact description for logs and listings.
func (r Region) String() string {
	return fmt.Sprintf("region%s content%s", r.Tag(), r.Content())
}
