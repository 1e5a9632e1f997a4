package schedule

import (
	"errors"
	"sort"
	"strings"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
)

var (
	ErrInvalidDay = errors.New("schedule: invalid weekday")
	// ErrNotOpen is returned when a dialog action needs an open form.
	ErrNotOpen = errors.New("schedule: dialog is not open")
	// ErrPending is returned while a submit or delete is in flight.
	ErrPending = errors.New("schedule: request already in flight")
	// ErrNoRecord is returned when deleting a day that has no record.
	ErrNoRecord = errors.New("schedule: no record for key")
	ErrBadState = errors.New("schedule: action not allowed in current phase")
)

// ValidationError carries per-field messages for the form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "schedule: invalid form: " + strings.Join(parts, "; ")
}

// RequestError is what the dialog shows when the API rejects a save or
// delete. It keeps the cause for errors.Is checks.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	if msg := apiclient.ServerMessage(e.Err); msg != "" {
		return e.Op + ": " + msg
	}
	return e.Op + ": request failed, try again"
}

func (e *RequestError) Unwrap() error { return e.Err }
