package apperrors

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without cause",
			err:      NewRestoreError("restore failed", nil),
			expected: "RESTORE_ERROR: restore failed",
		},
		{
			name:     "with cause",
			err:      NewReplicateError("replicate failed", errors.New("exit status 1")),
			expected: "REPLICATE_ERROR: replicate failed (caused by: exit status 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewConfigurationError("bad config", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestError_WithContext(t *testing.T) {
	err := NewStorageError("bucket unreachable", nil).
		WithContext("bucket", "my-bucket").
		WithContext("scheme", "s3")

	assert.Equal(t, "my-bucket", err.Context["bucket"])
	assert.Equal(t, "s3", err.Context["scheme"])
}

func TestError_ExitCodeAndStderr(t *testing.T) {
	err := NewRestoreError("tool failed", nil).
		WithExitCode(1).
		WithStderr("access denied")

	assert.Equal(t, 1, err.ExitCode)
	assert.Equal(t, "access denied", err.Stderr)
	assert.Equal(t, 1, ExitCode(err))
}

func TestExitCode_NonWrapperError(t *testing.T) {
	assert.Equal(t, -1, ExitCode(errors.New("plain")))
	assert.Equal(t, -1, ExitCode(NewConfigurationError("no exit", nil)))
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewToolNotFoundError("missing", nil))

	assert.True(t, IsType(err, ErrorTypeToolNotFound))
	assert.False(t, IsType(err, ErrorTypeRestore))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeRestore))
}

func TestClassifySubprocessError_Nil(t *testing.T) {
	assert.Nil(t, ClassifySubprocessError(ErrorTypeRestore, nil, ""))
}

func TestClassifySubprocessError_NotFound(t *testing.T) {
	err := ClassifySubprocessError(ErrorTypeRestore, exec.ErrNotFound, "")

	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeToolNotFound, err.Type)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestClassifySubprocessError_Deadline(t *testing.T) {
	err := ClassifySubprocessError(ErrorTypeReplicate, context.DeadlineExceeded, "partial output")

	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeTimeout, err.Type)
	assert.Equal(t, "partial output", err.Stderr)
}

func TestClassifySubprocessError_AlreadyClassified(t *testing.T) {
	orig := NewRestoreError("already typed", nil).WithExitCode(2)
	err := ClassifySubprocessError(ErrorTypeReplicate, orig, "ignored")

	assert.Same(t, orig, err)
}

func TestClassifySubprocessError_Generic(t *testing.T) {
	err := ClassifySubprocessError(ErrorTypeReplicate, errors.New("pipe broke"), "noise")

	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeReplicate, err.Type)
	assert.Equal(t, -1, err.ExitCode)
	assert.Equal(t, "noise", err.Stderr)
}
