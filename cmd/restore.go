package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"litestream-sidecar/internal/litestream"
	"litestream-sidecar/internal/snapshot"
	"litestream-sidecar/internal/storage"
	"litestream-sidecar/internal/verify"
)

var (
	restorePreflight bool
	restoreVerify    bool
	restoreSnapshot  bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Delete the local database and restore it from the replica",
	Long: `Delete the local database file (with its -shm and -wal companions) and
restore a fresh copy from the replica. Run this once at container start,
before the application opens the database.

The delete step makes the restore deterministic: the external tool refuses
to overwrite an existing file, so a stale local copy would otherwise abort
the startup sequence.

Examples:
  # Plain delete-then-restore
  litestream-sidecar restore

  # Archive the local file before deleting it, check the result afterwards
  litestream-sidecar restore --snapshot --verify

  # Fail fast when the bucket is unreachable, before any subprocess runs
  litestream-sidecar restore --preflight`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restorePreflight, "preflight", false, "check replica bucket reachability before restoring")
	restoreCmd.Flags().BoolVar(&restoreVerify, "verify", false, "run a sqlite integrity check on the restored file")
	restoreCmd.Flags().BoolVar(&restoreSnapshot, "snapshot", false, "archive the local database before deleting it")

	viper.BindPFlag("preflight", restoreCmd.Flags().Lookup("preflight"))
	viper.BindPFlag("verify_after_restore", restoreCmd.Flags().Lookup("verify"))
	viper.BindPFlag("snapshot.enabled", restoreCmd.Flags().Lookup("snapshot"))

	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	status := buildStatus()
	ctx := cmd.Context()

	if cfg.Preflight {
		verifier, err := storage.NewVerifier(cfg)
		if err != nil {
			return err
		}
		if err := verifier.Verify(ctx); err != nil {
			status.Failuref("replica preflight failed: %v", err)
			return err
		}
		status.Infof("replica reachable via %s", verifier.Provider())
	}

	svc := litestream.NewService(cfg, litestream.WithLogger(log))

	if cfg.Snapshot.Enabled {
		manager, err := snapshot.NewManager(cfg.Snapshot, log)
		if err != nil {
			return err
		}
		dbPath, err := cfg.DBPath()
		if err != nil {
			return err
		}
		path, err := manager.Take(dbPath)
		if err != nil {
			return err
		}
		if path != "" {
			status.Infof("snapshot taken: %s", path)
		}
	}

	if err := svc.Delete(); err != nil {
		return err
	}

	dbPath, err := svc.Restore(ctx)
	if err != nil {
		status.Failuref("restore failed: %v", err)
		return err
	}

	if cfg.VerifyAfterRestore {
		if err := verify.NewChecker().Check(ctx, dbPath); err != nil {
			status.Failuref("restored database failed integrity check: %v", err)
			return err
		}
		status.Infof("integrity check passed")
	}

	status.Successf("restored %s", dbPath)
	return nil
}
