package cmd

import (
	"github.com/spf13/cobra"

	"litestream-sidecar/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run a sqlite integrity check on the local database",
	Long: `Run a sqlite integrity check on the local database file. The file is
opened read-only; a failed check leaves it untouched.

Examples:
  litestream-sidecar verify`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	status := buildStatus()

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}

	if err := verify.NewChecker().Check(cmd.Context(), dbPath); err != nil {
		status.Failuref("integrity check failed: %v", err)
		return err
	}

	status.Successf("%s passed the integrity check", dbPath)
	return nil
}
