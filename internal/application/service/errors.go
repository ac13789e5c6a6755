package service

import "errors"

// Error taxonomy reported to callers. Every failure wraps exactly one of
// these sentinels so the adapter layer can map it to a stable category.
var (
	// ErrValidation marks missing or malformed input, rejected before any
	// mutation.
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied marks a caller whose role lacks authority for the
	// requested level or action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound marks an absent request, assignment or batch.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded marks a mentor at capacity. A business-rule
	// failure, not a bug.
	ErrCapacityExceeded = errors.New("mentor capacity exceeded")

	// ErrInvalidTransition marks an action that is not legal from the
	// current state.
	ErrInvalidTransition = errors.New("invalid transition")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
