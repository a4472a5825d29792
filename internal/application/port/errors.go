package port

import "errors"

// Failure categories shared by every core operation. Callers discriminate
// with errors.Is; the underlying cause stays attached for diagnostics.
var (
	// ErrNotFound: the identity does not exist or is logically inactive.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the write violates a consistency rule, e.g. a second
	// active receipt for the same (report, line) pair or a transition to
	// a disabled state.
	ErrConflict = errors.New("conflict")

	// ErrStorage: the backing store failed; the enclosing unit of work
	// was rolled back and nothing was applied.
	ErrStorage = errors.New("storage failure")
)
