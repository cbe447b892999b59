package api

import (
	"errors"
	"net/http"
)

// ErrUnauthorized marks a missing or expired token. Callers should send
// the user back to login.
var ErrUnauthorized = errors.New("authentication required")

// Error is a failure reported by the backend. Message carries the
// server-provided text and is what the user should see.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsAuth reports whether err means the session is missing or expired.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsOwnership reports whether err is the backend refusing to touch a line
// the requester did not create.
func IsOwnership(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}
