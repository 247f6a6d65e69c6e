package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportError(t *testing.T) {
	cause := errors.New("disk full")
	err := &ExportError{Project: "My Site", Err: cause}

	assert.Contains(t, err.Error(), "failed to export project as zip")
	assert.Contains(t, err.Error(), `"My Site"`)
	assert.Contains(t, err.Error(), "disk full")

	// Every export failure matches the single user-facing sentinel, and the
	// underlying cause stays reachable through the chain.
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.ErrorIs(t, err, cause)
}

func TestTransportError(t *testing.T) {
	cause := errors.New("bad frame")
	err := &TransportError{Kind: "update", Room: "project-1", Err: cause, Timestamp: time.Now()}

	assert.Contains(t, err.Error(), "update")
	assert.Contains(t, err.Error(), `"project-1"`)
	assert.ErrorIs(t, err, cause)
}

func TestSaveError(t *testing.T) {
	cause := errors.New("database locked")
	err := &SaveError{ProjectID: "proj-1", Err: cause}

	assert.Contains(t, err.Error(), `"proj-1"`)
	assert.ErrorIs(t, err, cause)

	wrapped := &TransportError{Kind: "save", Err: err}
	var saveErr *SaveError
	require.ErrorAs(t, wrapped, &saveErr)
	assert.Equal(t, "proj-1", saveErr.ProjectID)
}
