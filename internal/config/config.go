package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"litestream-sidecar/internal/apperrors"
)

// Environment variable names shared with the wrapped litestream binary.
// The credential names are an external contract: litestream itself reads
// them, so the wrapper must pass them through unchanged.
const (
	// EnvAccessKeyID is the environment variable for the replica access key id.
	EnvAccessKeyID = "LITESTREAM_ACCESS_KEY_ID"
	// EnvSecretAccessKey is the environment variable for the replica secret key.
	EnvSecretAccessKey = "LITESTREAM_SECRET_ACCESS_KEY"
	// EnvReplicaURL is the environment variable for the replica locator.
	EnvReplicaURL = "REPLICA_URL"
	// EnvFolder overrides the local folder holding the database file.
	EnvFolder = "LITESTREAM_FOLDER"
	// EnvDBName overrides the local database file name.
	EnvDBName = "LITESTREAM_DB"
	// EnvSnapshotPassphrase enables encryption of local safety snapshots.
	EnvSnapshotPassphrase = "LITESTREAM_SNAPSHOT_PASSPHRASE"
)

// Defaults applied before file, environment, and flag overrides.
const (
	DefaultBinary      = "litestream"
	DefaultFolder      = "data"
	DefaultDBName      = "db.sqlite"
	DefaultWindow      = 30 * time.Second
	DefaultKeepLatest  = 3
	DefaultCompression = "gzip"
)

var (
	// dbNamePattern mirrors the naming rule the container contract expects:
	// lowercase leading segment, .sqlite or .db extension.
	dbNamePattern = regexp.MustCompile(`^[a-z]{1,20}.*\.(sqlite|db)$`)

	// replicaSchemes are the locator schemes the wrapped binary accepts.
	replicaSchemes = []string{"s3://", "gcs://", "abs://"}
)

// SnapshotConfig controls the local safety snapshot taken before a
// delete-then-restore cycle overwrites the database file.
type SnapshotConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	Compression string `mapstructure:"compression" yaml:"compression"`
	Level       int    `mapstructure:"level" yaml:"level"`
	KeepLatest  int    `mapstructure:"keep_latest" yaml:"keep_latest"`
	Passphrase  string `mapstructure:"-" yaml:"-"`
}

// LogConfig holds logging options for the wrapper itself.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// ReplicationConfig is the validated settings object driving every
// invocation of the external replication binary. It is constructed once per
// process and immutable thereafter.
type ReplicationConfig struct {
	// AccessKeyID and SecretAccessKey authorize the tool against the
	// replica bucket. Secrets: never rendered into argv or logs.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"-"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"-"`

	// ReplicaURL names where the remote copy of the database is kept,
	// e.g. s3://bucket/path.
	ReplicaURL string `mapstructure:"replica_url" yaml:"replica_url"`

	// Folder is the local directory holding the database file.
	Folder string `mapstructure:"folder" yaml:"folder"`

	// DBName is the local database file name.
	DBName string `mapstructure:"db" yaml:"db"`

	// Binary is the external tool to invoke.
	Binary string `mapstructure:"binary" yaml:"binary"`

	// Window bounds a timed replication run.
	Window time.Duration `mapstructure:"window" yaml:"window"`

	// Schedule is an optional cron expression for recurring replication.
	Schedule string `mapstructure:"schedule" yaml:"schedule"`

	// Preflight enables a replica bucket reachability check before
	// restore and replicate operations.
	Preflight bool `mapstructure:"preflight" yaml:"preflight"`

	// VerifyAfterRestore runs a sqlite integrity check on the restored file.
	VerifyAfterRestore bool `mapstructure:"verify_after_restore" yaml:"verify_after_restore"`

	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// SetDefaults fills zero-valued fields with their defaults
func (c *ReplicationConfig) SetDefaults() {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Folder == "" {
		c.Folder = DefaultFolder
	}
	if c.DBName == "" {
		c.DBName = DefaultDBName
	}
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.Snapshot.Compression == "" {
		c.Snapshot.Compression = DefaultCompression
	}
	if c.Snapshot.KeepLatest == 0 {
		c.Snapshot.KeepLatest = DefaultKeepLatest
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = filepath.Join(c.Folder, "snapshots")
	}
	if c.Log.Level == "" {
		c.Log.Level = "normal"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// LoadFromEnvironment overrides fields from the process environment
func (c *ReplicationConfig) LoadFromEnvironment() {
	if v := os.Getenv(EnvAccessKeyID); v != "" {
		c.AccessKeyID = v
	}
	if v := os.Getenv(EnvSecretAccessKey); v != "" {
		c.SecretAccessKey = v
	}
	if v := os.Getenv(EnvReplicaURL); v != "" {
		c.ReplicaURL = v
	}
	if v := os.Getenv(EnvFolder); v != "" {
		c.Folder = v
	}
	if v := os.Getenv(EnvDBName); v != "" {
		c.DBName = v
	}
	if v := os.Getenv(EnvSnapshotPassphrase); v != "" {
		c.Snapshot.Passphrase = v
	}
}

// Validate checks the configuration invariants. A failure here means no
// subprocess will ever be spawned from this config.
func (c *ReplicationConfig) Validate() error {
	var missing []string

	if c.AccessKeyID == "" {
		missing = append(missing, EnvAccessKeyID)
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, EnvSecretAccessKey)
	}
	if c.ReplicaURL == "" {
		missing = append(missing, EnvReplicaURL)
	}
	if len(missing) > 0 {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("required values missing: %s", strings.Join(missing, ", ")), nil)
	}

	if !hasReplicaScheme(c.ReplicaURL) {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("replica URL %q must use one of the schemes %s",
				c.ReplicaURL, strings.Join(replicaSchemes, ", ")), nil).
			WithContext("replica_url", c.ReplicaURL)
	}

	if !dbNamePattern.MatchString(c.DBName) {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("database file name %q must match %s", c.DBName, dbNamePattern.String()), nil).
			WithContext("db", c.DBName)
	}

	if c.Window <= 0 {
		return apperrors.NewConfigurationError("replication window must be greater than 0", nil)
	}

	if c.Snapshot.KeepLatest < 1 {
		return apperrors.NewConfigurationError("snapshot keep_latest must be at least 1", nil)
	}

	return nil
}

// DBPath returns the local database path, folder joined with the file name.
// The folder is created on demand so a fresh container can restore into it.
func (c *ReplicationConfig) DBPath() (string, error) {
	if err := os.MkdirAll(c.Folder, 0o755); err != nil {
		return "", apperrors.NewConfigurationError(
			fmt.Sprintf("cannot create local folder %s", c.Folder), err)
	}
	return filepath.Join(c.Folder, c.DBName), nil
}

// RemoteURL returns the replica locator exactly as configured. The wrapped
// binary expects the full remote path; no file name is appended.
func (c *ReplicationConfig) RemoteURL() string {
	return c.ReplicaURL
}

// ReplicaScheme returns the locator scheme without the "://" suffix
func (c *ReplicationConfig) ReplicaScheme() string {
	if i := strings.Index(c.ReplicaURL, "://"); i > 0 {
		return c.ReplicaURL[:i]
	}
	return ""
}

// CredentialEnv returns the environment entries the subprocess needs to
// authorize against the replica. Credentials go through the environment,
// never argv, so they do not leak via process listings.
func (c *ReplicationConfig) CredentialEnv() []string {
	return []string{
		EnvAccessKeyID + "=" + c.AccessKeyID,
		EnvSecretAccessKey + "=" + c.SecretAccessKey,
	}
}

func hasReplicaScheme(url string) bool {
	for _, scheme := range replicaSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}
