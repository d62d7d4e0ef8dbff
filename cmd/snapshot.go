package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"litestream-sidecar/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage local safety snapshots",
	Long: `Manage the local safety snapshots taken before delete-then-restore
overwrites the database file.

Examples:
  # Show the archives on disk, newest first
  litestream-sidecar snapshot list

  # Bring the local database back from an archive
  litestream-sidecar snapshot restore data/snapshots/db.sqlite.20260831T120000.1a2b3c4d.gzip.snap`,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshot archives, newest first",
	RunE:  runSnapshotList,
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Restore the local database from a snapshot archive",
	Long: `Decrypt and decompress a snapshot archive back into the configured
database path. The archive's compression algorithm is read from its file
name; an encrypted archive needs the same passphrase it was taken with.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotRestore,
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	status := buildStatus()

	manager, err := snapshot.NewManager(cfg.Snapshot, log)
	if err != nil {
		return err
	}

	snapshots, err := manager.List()
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		status.Infof("no snapshots in %s", cfg.Snapshot.Dir)
		return nil
	}

	for _, s := range snapshots {
		fmt.Printf("%s  %-5s  %8d  %s\n",
			s.CreatedAt.Format("2006-01-02 15:04:05"), s.Algorithm, s.Size, s.Path)
	}
	return nil
}

func runSnapshotRestore(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	status := buildStatus()

	manager, err := snapshot.NewManager(cfg.Snapshot, log)
	if err != nil {
		return err
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}

	if err := manager.Restore(args[0], dbPath); err != nil {
		status.Failuref("snapshot restore failed: %v", err)
		return err
	}

	status.Successf("restored %s from %s", dbPath, args[0])
	return nil
}
