package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"litestream-sidecar/internal/apperrors"
	"litestream-sidecar/internal/config"
	"litestream-sidecar/internal/display"
	"litestream-sidecar/internal/logging"
)

var cfgFile string

// CLI flag variables
var (
	replicaURL string
	folder     string
	dbName     string
	binary     string

	verbose   bool
	quiet     bool
	logFile   string
	logFormat string
	noColor   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "litestream-sidecar",
	Short: "Container entrypoint that restores and replicates a sqlite database via litestream",
	Long: `litestream-sidecar wraps the litestream binary so a container can restore
its sqlite database from an object-storage replica at startup and continuously
replicate local writes back to the bucket.

Credentials and the replica locator come from the environment:

  LITESTREAM_ACCESS_KEY_ID      access key for the replica bucket
  LITESTREAM_SECRET_ACCESS_KEY  secret key for the replica bucket
  REPLICA_URL                   replica locator, e.g. s3://bucket/db

Examples:
  # Delete-then-restore the local database at container start
  litestream-sidecar restore

  # Continuously replicate local writes (long-lived foreground process)
  litestream-sidecar replicate

  # One bounded replication run, then hand the file off to the replica
  litestream-sidecar replicate --window=30s

  # Recurring bounded replication on a cron schedule
  litestream-sidecar replicate --schedule="@every 15m" --window=30s`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. The process exit code mirrors the external tool's exit
// status when one is available.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := apperrors.ExitCode(err)
		if code < 0 {
			code = 1
		}
		os.Exit(code)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	rootCmd.PersistentFlags().StringVar(&replicaURL, "replica-url", "", "replica locator (overrides REPLICA_URL)")
	rootCmd.PersistentFlags().StringVar(&folder, "folder", "", "local folder holding the database file")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", "", "local database file name")
	rootCmd.PersistentFlags().StringVar(&binary, "binary", "", "external replication binary")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file in addition to stdout")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")

	viper.BindPFlag("replica_url", rootCmd.PersistentFlags().Lookup("replica-url"))
	viper.BindPFlag("folder", rootCmd.PersistentFlags().Lookup("folder"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("binary", rootCmd.PersistentFlags().Lookup("binary"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// buildConfig loads and validates the configuration for a subcommand run
func buildConfig(cmd *cobra.Command) (*config.ReplicationConfig, error) {
	if verbose && quiet {
		return nil, apperrors.NewConfigurationError("--verbose and --quiet flags are mutually exclusive", nil)
	}

	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("verbose") && verbose {
		cfg.Log.Level = string(logging.LogLevelVerbose)
	}
	if cmd.Flags().Changed("quiet") && quiet {
		cfg.Log.Level = string(logging.LogLevelQuiet)
	}

	return cfg, nil
}

// buildLogger creates the logger matching the loaded configuration
func buildLogger(cfg *config.ReplicationConfig) (*logging.Logger, error) {
	return logging.NewLogger(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Format:  cfg.Log.Format,
		LogFile: cfg.Log.File,
	})
}

// buildStatus creates the operator status printer
func buildStatus() *display.Status {
	if noColor {
		return display.NewStatus(display.WithColor(false))
	}
	return display.NewStatus()
}

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
	goVersion = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc, gv string) {
	version = v
	buildTime = bt
	gitCommit = gc
	goVersion = gv
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("litestream-sidecar version %s\n", version)
			fmt.Printf("Built: %s\n", buildTime)
			fmt.Printf("Commit: %s\n", gitCommit)
			fmt.Printf("Go: %s\n", goVersion)
		},
	}
}

// createConfigCommand creates the config subcommand for generating a sample
// configuration file
func createConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file for use with the --config flag.

Examples:
  litestream-sidecar config > config.yaml`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(config.SampleConfig())
		},
	}
}

func init() {
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())
}
