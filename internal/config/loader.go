package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"litestream-sidecar/internal/apperrors"
)

// Loader builds a validated ReplicationConfig from defaults, an optional
// YAML file, the environment, and any flag bindings registered with viper.
type Loader struct {
	configPath string
}

// NewLoader creates a configuration loader. configPath may be empty.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load runs the full pipeline: config file and flag bindings through viper,
// then defaults, then the environment, then validation. The environment wins
// over the file so container secrets never have to live on disk.
func (l *Loader) Load() (*ReplicationConfig, error) {
	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err == nil {
			viper.SetConfigFile(l.configPath)
			if err := viper.ReadInConfig(); err != nil {
				return nil, apperrors.NewConfigurationError(
					fmt.Sprintf("failed to read config file %s", l.configPath), err)
			}
		}
	}

	cfg := &ReplicationConfig{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to unmarshal configuration", err)
	}

	cfg.SetDefaults()
	cfg.LoadFromEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to the loader's path as YAML. Secrets are excluded by the
// yaml tags on ReplicationConfig.
func (l *Loader) Save(cfg *ReplicationConfig) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigurationError("cannot save invalid configuration", err)
	}

	dir := filepath.Dir(l.configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("failed to create config directory %s", dir), err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.NewConfigurationError("failed to marshal configuration", err)
	}

	if err := os.WriteFile(l.configPath, data, 0o600); err != nil {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("failed to write config file %s", l.configPath), err)
	}

	return nil
}

// SampleConfig returns a documented configuration template for the config
// subcommand.
func SampleConfig() string {
	return `# litestream-sidecar configuration file
# Credentials are read from the environment only:
#   LITESTREAM_ACCESS_KEY_ID=xxx
#   LITESTREAM_SECRET_ACCESS_KEY=yyy
#   REPLICA_URL=s3://bucket/db   (may also live here as replica_url)

replica_url: s3://bucket/db  # Remote replica locator (s3://, gcs://, abs://)
folder: data                 # Local folder holding the database file
db: db.sqlite                # Database file name (.sqlite or .db)
binary: litestream           # External replication binary
window: 30s                  # Deadline for a timed replication run
schedule: ""                 # Optional cron expression for recurring replication
preflight: false             # Check replica bucket reachability before running
verify_after_restore: false  # Run PRAGMA integrity_check on the restored file

snapshot:
  enabled: false             # Archive the local db before delete-then-restore
  dir: data/snapshots        # Where snapshot archives are written
  compression: gzip          # gzip, zstd, lz4, or none
  level: 0                   # 0 = algorithm default
  keep_latest: 3             # Snapshots retained after pruning

log:
  level: normal              # quiet, normal, verbose, debug
  format: text               # text or json
  file: ""                   # Optional log file (in addition to stdout)
`
}
