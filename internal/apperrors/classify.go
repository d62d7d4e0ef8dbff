package apperrors

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// AsError unwraps err to a wrapper *Error if one is present in the chain
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ClassifySubprocessError converts an error returned by running the external
// tool into the wrapper taxonomy. The operation type decides whether a
// non-zero exit becomes a restore or a replicate error; stderr is attached so
// the tool's diagnostics travel with the error.
func ClassifySubprocessError(opType ErrorType, err error, stderr string) *Error {
	if err == nil {
		return nil
	}

	// Already classified upstream
	if appErr, ok := AsError(err); ok {
		return appErr
	}

	// Binary missing from the execution environment
	if errors.Is(err, exec.ErrNotFound) {
		return NewToolNotFoundError(
			"external replication binary not found in PATH", err).
			WithStderr(stderr)
	}

	// Deadline cut the subprocess short
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("subprocess deadline exceeded", err).
			WithStderr(stderr)
	}
	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("subprocess canceled", err).
			WithStderr(stderr)
	}

	// Non-zero exit from the tool itself
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return New(opType,
			fmt.Sprintf("external tool exited with status %d", exitErr.ExitCode()), err).
			WithExitCode(exitErr.ExitCode()).
			WithStderr(stderr)
	}

	return New(opType, "subprocess invocation failed", err).WithStderr(stderr)
}
