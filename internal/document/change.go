package document

import (
	"fmt"
	"sort"
)

// Change replaces the bytes [From, To) with Insert.
type Change struct {
	From   int
	To     int
	Insert string
}

// Delta returns the change in document length caused by this change.
func (c Change) Delta() int {
	return len(c.Insert) - (c.To - c.From)
}

// IsNoOp returns true if the change does nothing.
func (c Change) IsNoOp() bool {
	return c.From == c.To && c.Insert == ""
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	switch {
	case c.From == c.To:
		return fmt.Sprintf("Insert(%d, %q)", c.From, c.Insert)
	case c.Insert == "":
		return fmt.Sprintf("Delete[%d, %d)", c.From, c.To)
	default:
		return fmt.Sprintf("Replace[%d, %d) with %q", c.From, c.To, c.Insert)
	}
}

// Transaction is a committed set of changes.
type Transaction struct {
	// Changes are sorted by From and expressed against the text before the
	// transaction.
	Changes []Change

	// Removed holds the text each change replaced, index-aligned with Changes.
	Removed []string

	// Version is the document version after the transaction.
	Version uint64

	// Origin names what produced the transaction ("edit", "undo", "redo").
	Origin string
}

// MapPos maps an offset in the pre-transaction text to the post-transaction
// text. Offsets inside a replaced range map to the end of the insertion.
func (tx Transaction) MapPos(pos int) int {
	delta := 0
	for _, c := range tx.Changes {
		if pos < c.From {
			break
		}
		if pos < c.To || (pos == c.To && c.From != c.To) {
			return c.From + delta + len(c.Insert)
		}
		delta += c.Delta()
	}
	return pos + delta
}

// invert returns changes that undo tx when applied to the post-transaction text.
func (tx Transaction) invert() []Change {
	inv := make([]Change, len(tx.Changes))
	delta := 0
	for i, c := range tx.Changes {
		from := c.From + delta
		inv[i] = Change{
			From:   from,
			To:     from + len(c.Insert),
			Insert: tx.Removed[i],
		}
		delta += c.Delta()
	}
	return inv
}

// normalize sorts changes, drops no-ops and validates them against length n.
func normalize(changes []Change, n int) ([]Change, error) {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if c.From < 0 || c.To < c.From || c.To > n {
			return nil, fmt.Errorf("%w: %s on length %d", ErrOutOfRange, c, n)
		}
		if c.IsNoOp() {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].From < out[j].From
	})

	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		if cur.From < prev.To || (cur.From == prev.From && prev.From == prev.To && cur.From == cur.To) {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, prev, cur)
		}
	}
	return out, nil
}
