package document

import "errors"

// Errors returned by document operations.
var (
	// ErrOutOfRange indicates a change addresses bytes outside the text.
	ErrOutOfRange = errors.New("change out of range")

	// ErrOverlap indicates two changes in one transaction overlap.
	ErrOverlap = errors.New("changes overlap")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrNoPath indicates Save was called on a document without a file path.
	ErrNoPath = errors.New("document has no file path")
)
