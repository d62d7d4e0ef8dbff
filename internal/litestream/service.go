// Package litestream is the settings-and-invocation layer around the
// external replication binary. It renders argument lists from the validated
// configuration, spawns the tool as a subprocess, and surfaces its exit
// status and diagnostics as typed errors. All replication and restore logic
// lives in the tool itself.
package litestream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"litestream-sidecar/internal/apperrors"
	"litestream-sidecar/internal/config"
	"litestream-sidecar/internal/logging"
)

// snapshotMarker is the stderr line fragment the tool emits once a snapshot
// has been written to the replica. Timed replication keys off it.
const snapshotMarker = "snapshot written"

// ErrLocalExists is returned (inside a restore error) when the local
// database file is already present. Call Delete before Restore.
var ErrLocalExists = errors.New("local database file already exists")

// Service drives the external replication binary for one configured
// database. It holds no state beyond its collaborators; each operation is a
// single synchronous subprocess invocation.
type Service struct {
	cfg    *config.ReplicationConfig
	runner Runner
	log    *logging.Logger
}

// Option configures a Service
type Option func(*Service)

// WithRunner replaces the subprocess runner, used by tests
func WithRunner(r Runner) Option {
	return func(s *Service) { s.runner = r }
}

// WithLogger replaces the default logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a Service for the given configuration
func NewService(cfg *config.ReplicationConfig, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		runner: NewExecRunner(),
		log:    logging.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RestoreArgs renders the argument list for a restore invocation:
// <binary> restore -v -o <dbpath> <replica-url>
func (s *Service) RestoreArgs(dbPath string) []string {
	return []string{
		s.cfg.Binary,
		"restore",
		"-v",
		"-o", dbPath,
		s.cfg.RemoteURL(),
	}
}

// ReplicateArgs renders the argument list for a replicate invocation:
// <binary> replicate <dbpath> <replica-url>
func (s *Service) ReplicateArgs(dbPath string) []string {
	return []string{
		s.cfg.Binary,
		"replicate",
		dbPath,
		s.cfg.RemoteURL(),
	}
}

// Restore reconstructs the local database file from the remote replica. It
// refuses to overwrite an existing file; run Delete first. On success the
// restored path is returned.
func (s *Service) Restore(ctx context.Context) (string, error) {
	dbPath, err := s.cfg.DBPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(dbPath); err == nil {
		return "", apperrors.NewRestoreError(
			fmt.Sprintf("remove %s before restore", dbPath), ErrLocalExists).
			WithContext("db_path", dbPath)
	}

	opLog := s.log.WithOperation("restore", uuid.NewString())
	args := s.RestoreArgs(dbPath)
	opLog.Infof("run: %s", strings.Join(args, " "))

	result, err := s.runner.Run(ctx, args, s.cfg.CredentialEnv())
	if result != nil {
		for _, line := range strings.Split(strings.TrimSpace(result.Stderr), "\n") {
			if line != "" {
				opLog.Debug(line)
			}
		}
	}
	if err != nil {
		return "", apperrors.ClassifySubprocessError(apperrors.ErrorTypeRestore, err, stderrOf(result))
	}
	if result != nil && result.ExitCode != 0 {
		return "", apperrors.NewRestoreError(
			fmt.Sprintf("external tool exited with status %d", result.ExitCode), nil).
			WithExitCode(result.ExitCode).
			WithStderr(result.Stderr)
	}

	opLog.Infof("restored %s from %s", dbPath, s.cfg.RemoteURL())
	return dbPath, nil
}

// Delete removes the local database file along with its -shm and -wal
// companions. Absent files are not an error; Delete is the pre-restore
// safety step.
func (s *Service) Delete() error {
	dbPath, err := s.cfg.DBPath()
	if err != nil {
		return err
	}

	for _, path := range []string{dbPath, dbPath + "-shm", dbPath + "-wal"} {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return apperrors.NewRestoreError(
				fmt.Sprintf("failed to delete %s", path), err)
		}
		s.log.Warnf("deleted %s", path)
	}
	return nil
}

// Replicate performs a one-shot replicate invocation for the configured
// local path and replica URL. The tool's own loop keeps it running until
// the context is cancelled or the process is stopped; this layer just waits.
func (s *Service) Replicate(ctx context.Context) error {
	dbPath, err := s.cfg.DBPath()
	if err != nil {
		return err
	}

	opLog := s.log.WithOperation("replicate", uuid.NewString())
	args := s.ReplicateArgs(dbPath)
	opLog.Infof("run: %s", strings.Join(args, " "))

	result, err := s.runner.Run(ctx, args, s.cfg.CredentialEnv())
	if err != nil {
		// Cancellation is the normal stop path for the long-lived loop:
		// the container runtime signals shutdown and the subprocess is
		// killed with it.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			opLog.Infof("replication stopped")
			return nil
		}
		return apperrors.ClassifySubprocessError(apperrors.ErrorTypeReplicate, err, stderrOf(result))
	}
	if result != nil && result.ExitCode != 0 {
		return apperrors.NewReplicateError(
			fmt.Sprintf("external tool exited with status %d", result.ExitCode), nil).
			WithExitCode(result.ExitCode).
			WithStderr(result.Stderr)
	}

	opLog.Infof("replicated %s to %s", dbPath, s.cfg.RemoteURL())
	return nil
}

// TimedReplicate bounds one replication run with the given window. The
// tool's replicate command never terminates on its own, so the window is
// enforced by a context deadline that kills the subprocess. Replication
// counts as successful when the tool reported a written snapshot before the
// window closed; the local database file is removed afterwards, matching
// the hand-off semantics of a container that replicates then exits.
func (s *Service) TimedReplicate(ctx context.Context, window time.Duration) (bool, error) {
	dbPath, err := s.cfg.DBPath()
	if err != nil {
		return false, err
	}

	opLog := s.log.WithOperation("timed-replicate", uuid.NewString())
	args := s.ReplicateArgs(dbPath)
	opLog.Infof("run for %s: %s", window, strings.Join(args, " "))

	runCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	result, err := s.runner.Run(runCtx, args, s.cfg.CredentialEnv())
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return false, apperrors.ClassifySubprocessError(apperrors.ErrorTypeReplicate, err, stderrOf(result))
	}

	if result == nil || !strings.Contains(result.Stderr, snapshotMarker) {
		opLog.Warnf("no snapshot written within %s", window)
		return false, nil
	}

	opLog.Infof("snapshot written to %s", s.cfg.RemoteURL())
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return true, apperrors.NewReplicateError(
			fmt.Sprintf("failed to remove %s after replication", dbPath), err)
	}
	return true, nil
}

func stderrOf(result *Result) string {
	if result == nil {
		return ""
	}
	return result.Stderr
}
