package markup

import "strings"

// Result is the outcome of a scan.
type Result struct {
	// Regions are the complete regions in document order.
	Regions []Region

	// Unterminated holds the offsets of opening markers with no
	// closing marker after them.
	Unterminated []int
}

// Scanner finds regions delimited by a marker pair.
type Scanner struct {
	markers Markers
}

// NewScanner creates a scanner for the given markers.
func NewScanner(m Markers) (*Scanner, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{markers: m}, nil
}

// Markers returns the scanner's marker pair.
func (s *Scanner) Markers() Markers {
	return s.markers
}

// Scan returns every region in text.
func (s *Scanner) Scan(text string) Result {
	var res Result
	open, closing := s.markers.Open, s.markers.Close

	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], open)
		if i < 0 {
			break
		}
		tagFrom := pos + i
		contentFrom := tagFrom + len(open)

		j := strings.Index(text[contentFrom:], closing)
		if j < 0 {
			// No closing marker anywhere after this point, so every later
			// opening marker is unterminated as well.
			res.Unterminated = append(res.Unterminated, tagFrom)
			for k := contentFrom; k < len(text); {
				n := strings.Index(text[k:], open)
				if n < 0 {
					break
				}
				res.Unterminated = append(res.Unterminated, k+n)
				k += n + len(open)
			}
			break
		}
		contentTo := contentFrom + j
		tagTo := contentTo + len(closing)

		res.Regions = append(res.Regions, Region{
			TagFrom:     tagFrom,
			ContentFrom: contentFrom,
			ContentTo:   contentTo,
			TagTo:       tagTo,
		})
		pos = tagTo
	}

	return res
}

// At returns the region whose tag span contains offset.
func (r Result) At(offset int) (Region, bool) {
	for _, reg := range r.Regions {
		if reg.Tag().Contains(offset) {
			return reg, true
		}
	}
	return Region{}, false
}

var defaultScanner = &Scanner{markers: DefaultMarkers()}

// Scan scans text using the default <secret> markers.
func Scan(text string) Result {
	return defaultScanner.Scan(text)
}
