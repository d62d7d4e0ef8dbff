package litestream

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// Result captures the outcome of one subprocess invocation
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner abstracts spawning the external replication binary so the service
// can be exercised against a stub in tests. Implementations run exactly one
// subprocess per call and wait for it to complete.
type Runner interface {
	Run(ctx context.Context, args []string, extraEnv []string) (*Result, error)
}

// execRunner runs the real binary via os/exec
type execRunner struct{}

// NewExecRunner returns a Runner backed by os/exec
func NewExecRunner() Runner {
	return &execRunner{}
}

// Run spawns args[0] with the remaining arguments, the parent environment,
// and extraEnv appended. Output is captured; the Result is returned even
// when the subprocess fails so callers can surface the tool's diagnostics.
func (r *execRunner) Run(ctx context.Context, args []string, extraEnv []string) (*Result, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), extraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		// A deadline kill surfaces as the context error, not the
		// resulting signal-death of the child.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, err
	}

	return result, nil
}
