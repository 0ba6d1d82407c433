package domain

import "errors"

// Domain errors
var (
	ErrContentNotFound   = errors.New("content item not found")
	ErrHighlightNotFound = errors.New("highlight not found")
	ErrInvalidToken      = errors.New("invalid token")

	// ErrRemoteUnavailable means a backend call could not complete.
	ErrRemoteUnavailable = errors.New("remote backend unavailable")
	// ErrUnauthorized means the backend rejected the caller, e.g. a delete by a non-owner.
	ErrUnauthorized = errors.New("not authorized by backend")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
