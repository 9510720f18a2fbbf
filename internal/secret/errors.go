package secret

import "errors"

// Errors returned by the extension.
var (
	// ErrNotAttached is returned by Render and Commit before Attach.
	ErrNotAttached = errors.New("extension is not attached")

	// ErrAlreadyAttached is returned by a second Attach.
	ErrAlreadyAttached = errors.New("extension is already attached")

	// ErrNoSuchRegion indicates a widget index outside the current regions.
	ErrNoSuchRegion = errors.New("no such secret region")

	// ErrStaleRegion indicates a widget no longer matches the document.
	ErrStaleRegion = errors.New("secret region changed since it was rendered")

	// ErrMarkerInContent indicates a committed value contains the closing
	// marker and would split the region.
	ErrMarkerInContent = errors.New("value contains the closing marker")

	// ErrInvalidPlaceholder indicates a View format that does not print the
	// display value exactly once.
	ErrInvalidPlaceholder = errors.New("invalid placeholder format")
)
