// Package errors defines the error values used at buildr's boundaries.
// Generation-level problems are recovered in place and never become errors;
// the types here cover the export, transport, and persistence boundaries
// where a failure has to surface as a single descriptive error.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrExportFailed is the single user-facing export failure. Archiving
// problems are wrapped into this so the caller never sees a half-built zip.
var ErrExportFailed = errors.New("failed to export project as zip")

// ErrChannelClosed is returned when publishing on a torn-down transport
// channel. Handlers treat it as a signal to stop, not as a fault.
var ErrChannelClosed = errors.New("transport channel is closed")

// ExportError wraps an archiving failure with the project it belonged to.
type ExportError struct {
	Project string
	Err     error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%v: project %q: %v", ErrExportFailed, e.Project, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause, so callers can
// match either with errors.Is.
func (e *ExportError) Unwrap() []error { return []error{ErrExportFailed, e.Err} }

// TransportError records a failure while handling one wire frame. Frames are
// independently recoverable, so these are logged at the handler boundary and
// never propagate out of the collaboration session.
type TransportError struct {
	Kind      string
	Room      string
	Err       error
	Timestamp time.Time
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s frame in room %q: %v", e.Kind, e.Room, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SaveError records a persistence failure. The bridge keeps the dirty flag
// set after one of these so the next debounce cycle retries the save.
type SaveError struct {
	ProjectID string
	Err       error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving project %q: %v", e.ProjectID, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
