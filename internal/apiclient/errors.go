package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the remote API rejected the credentials (401).
	ErrUnauthorized = errors.New("apiclient: unauthorized")
	// ErrForbidden means the signed-in admin may not perform the call (403).
	ErrForbidden = errors.New("apiclient: forbidden")
	ErrNotFound  = errors.New("apiclient: not found")
	ErrConflict  = errors.New("apiclient: conflict")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	// Body is truncated to keep logs readable.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned %d for %s %s: %s", e.Status, e.Method, e.Path, e.Body)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict || e.Status == http.StatusPreconditionFailed
	}
	return false
}

// IsAuthError reports whether err should send the admin back to the login route.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// ServerMessage extracts the "message" or "error" field the API puts in error
// bodies, falling back to the raw text.
func ServerMessage(err error) string {
	var se *StatusError
	if !errors.As(err, &se) {
		return ""
	}
	return extractMessage([]byte(se.Body))
}
