package annotation

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is matched by every structural problem in an annotation document.
	ErrMalformed = errors.New("malformed annotation document")
	// ErrEmpty is returned for a document with no frames.
	ErrEmpty = errors.New("annotation document has no frames")
)

// FormatError identifies where in the document a required field is missing or invalid.
type FormatError struct {
	Position int    // 0-based position of the frame in the document
	Frame    int    // frameNumber, 0 when it could not be read
	Object   int    // 0-based object index, -1 for frame-level problems
	Field    string // offending field, e.g. "bbox.width"
	Reason   string
}

func (e *FormatError) Error() string {
	where := fmt.Sprintf("frame at position %d", e.Position)
	if e.Frame > 0 {
		where = fmt.Sprintf("frame %d", e.Frame)
	}
	if e.Object >= 0 {
		where += fmt.Sprintf(", object %d", e.Object)
	}
	return fmt.Sprintf("%s: %s: %s", where, e.Field, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrMalformed }
