package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"litestream-sidecar/internal/apperrors"
	"litestream-sidecar/internal/litestream"
	"litestream-sidecar/internal/storage"
)

var (
	replicateWindow    time.Duration
	replicateSchedule  string
	replicateTimed     bool
	replicatePreflight bool
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Replicate local database writes to the replica",
	Long: `Replicate local database writes to the replica.

By default the external tool runs until the process receives SIGINT or
SIGTERM, continuously shipping WAL segments to the bucket. With --timed (or
an explicit --window) the run is bounded: the tool gets one window to write
a snapshot, the local file is removed once it has, and the command exits
non-zero when no snapshot made it out in time. With --schedule the bounded
run repeats on a cron expression and the command becomes the container's
long-lived foreground process. The window duration comes from --window, the
config file, or the 30s default.

Examples:
  # Continuous replication (container main process)
  litestream-sidecar replicate

  # One bounded run, hand the file off to the replica
  litestream-sidecar replicate --window=30s

  # One bounded run using the window from the config file
  litestream-sidecar replicate --timed --config=config.yaml

  # Bounded runs every 15 minutes
  litestream-sidecar replicate --schedule="@every 15m" --window=30s`,
	RunE: runReplicate,
}

func init() {
	replicateCmd.Flags().DurationVar(&replicateWindow, "window", 0, "bound the replication run to this duration")
	replicateCmd.Flags().BoolVar(&replicateTimed, "timed", false, "run one bounded replication using the configured window")
	replicateCmd.Flags().StringVar(&replicateSchedule, "schedule", "", "cron expression for recurring bounded replication")
	replicateCmd.Flags().BoolVar(&replicatePreflight, "preflight", false, "check replica bucket reachability before replicating")

	viper.BindPFlag("window", replicateCmd.Flags().Lookup("window"))
	viper.BindPFlag("schedule", replicateCmd.Flags().Lookup("schedule"))

	rootCmd.AddCommand(replicateCmd)
}

func runReplicate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	status := buildStatus()

	// Cancelling the context kills the subprocess, so a SIGTERM from the
	// container runtime shuts the tool down cleanly.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if replicatePreflight || cfg.Preflight {
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

	schedule := replicateSchedule
	if schedule == "" {
		schedule = cfg.Schedule
	}
	window := replicateWindow
	if window == 0 {
		window = cfg.Window
	}

	if schedule != "" {
		return svc.ScheduledReplicate(ctx, schedule, window)
	}

	if timedRunRequested(cmd) {
		written, err := svc.TimedReplicate(ctx, window)
		if err != nil {
			status.Failuref("replication failed: %v", err)
			return err
		}
		if !written {
			status.Warningf("no snapshot written within %s", window)
			return apperrors.NewReplicateError("no snapshot written within the replication window", nil)
		}
		status.Successf("snapshot written to %s", cfg.RemoteURL())
		return nil
	}

	if err := svc.Replicate(ctx); err != nil {
		status.Failuref("replication failed: %v", err)
		return err
	}
	status.Successf("replication finished")
	return nil
}

// timedRunRequested reports whether a bounded run was asked for, either via
// the explicit flag or by overriding the window on the command line. The
// window value itself always has a default, so it cannot select the mode.
func timedRunRequested(cmd *cobra.Command) bool {
	return replicateTimed || cmd.Flags().Changed("window")
}
