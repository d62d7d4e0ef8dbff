package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litestream-sidecar/internal/apperrors"
)

func validConfig(t *testing.T) *ReplicationConfig {
	t.Helper()
	cfg := &ReplicationConfig{
		AccessKeyID:     "key",
		SecretAccessKey: "token",
		ReplicaURL:      "s3://bucket/db",
		Folder:          t.TempDir(),
	}
	cfg.SetDefaults()
	return cfg
}

func TestReplicationConfig_SetDefaults(t *testing.T) {
	cfg := &ReplicationConfig{}
	cfg.SetDefaults()

	assert.Equal(t, DefaultBinary, cfg.Binary)
	assert.Equal(t, DefaultFolder, cfg.Folder)
	assert.Equal(t, DefaultDBName, cfg.DBName)
	assert.Equal(t, DefaultWindow, cfg.Window)
	assert.Equal(t, DefaultCompression, cfg.Snapshot.Compression)
	assert.Equal(t, DefaultKeepLatest, cfg.Snapshot.KeepLatest)
	assert.Equal(t, filepath.Join(DefaultFolder, "snapshots"), cfg.Snapshot.Dir)
	assert.Equal(t, "normal", cfg.Log.Level)
}

func TestReplicationConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ReplicationConfig)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(c *ReplicationConfig) {},
		},
		{
			name:    "missing access key",
			modify:  func(c *ReplicationConfig) { c.AccessKeyID = "" },
			wantErr: EnvAccessKeyID,
		},
		{
			name:    "missing secret key",
			modify:  func(c *ReplicationConfig) { c.SecretAccessKey = "" },
			wantErr: EnvSecretAccessKey,
		},
		{
			name:    "missing replica url",
			modify:  func(c *ReplicationConfig) { c.ReplicaURL = "" },
			wantErr: EnvReplicaURL,
		},
		{
			name:    "bad replica scheme",
			modify:  func(c *ReplicationConfig) { c.ReplicaURL = "ftp://bucket/db" },
			wantErr: "schemes",
		},
		{
			name:    "bad db name",
			modify:  func(c *ReplicationConfig) { c.DBName = "DB.txt" },
			wantErr: "database file name",
		},
		{
			name:    "zero window",
			modify:  func(c *ReplicationConfig) { c.Window = -time.Second },
			wantErr: "window",
		},
		{
			name:    "bad retention",
			modify:  func(c *ReplicationConfig) { c.Snapshot.KeepLatest = 0 },
			wantErr: "keep_latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReplicationConfig_ValidDBNames(t *testing.T) {
	valid := []string{"db.sqlite", "app.db", "mydata.sqlite", "a.db"}
	invalid := []string{"DB.sqlite", "db.txt", ".sqlite", "1db.sqlite"}

	for _, name := range valid {
		cfg := validConfig(t)
		cfg.DBName = name
		assert.NoError(t, cfg.Validate(), "expected %q to be valid", name)
	}
	for _, name := range invalid {
		cfg := validConfig(t)
		cfg.DBName = name
		assert.Error(t, cfg.Validate(), "expected %q to be rejected", name)
	}
}

func TestReplicationConfig_DBPath(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t)
	cfg.Folder = filepath.Join(dir, "data")

	path, err := cfg.DBPath()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "db.sqlite"), path)
	assert.DirExists(t, cfg.Folder)
}

func TestReplicationConfig_DerivedValuesDeterministic(t *testing.T) {
	cfg := validConfig(t)

	first, err := cfg.DBPath()
	require.NoError(t, err)
	second, err := cfg.DBPath()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, cfg.RemoteURL(), cfg.RemoteURL())
}

func TestReplicationConfig_RemoteURL(t *testing.T) {
	// The locator is passed to the tool verbatim: no file name suffixing.
	cfg := validConfig(t)
	cfg.ReplicaURL = "s3://bucket/db"

	assert.Equal(t, "s3://bucket/db", cfg.RemoteURL())
}

func TestReplicationConfig_ReplicaScheme(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"s3://bucket/db", "s3"},
		{"gcs://bucket/db", "gcs"},
		{"abs://account/container", "abs"},
		{"no-scheme", ""},
	}

	for _, tt := range tests {
		cfg := validConfig(t)
		cfg.ReplicaURL = tt.url
		assert.Equal(t, tt.expected, cfg.ReplicaScheme())
	}
}

func TestReplicationConfig_CredentialEnv(t *testing.T) {
	cfg := validConfig(t)
	cfg.AccessKeyID = "xxx"
	cfg.SecretAccessKey = "yyy"

	env := cfg.CredentialEnv()

	assert.Contains(t, env, EnvAccessKeyID+"=xxx")
	assert.Contains(t, env, EnvSecretAccessKey+"=yyy")
	assert.Len(t, env, 2)
}

func TestReplicationConfig_LoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvAccessKeyID, "env-key")
	t.Setenv(EnvSecretAccessKey, "env-token")
	t.Setenv(EnvReplicaURL, "s3://env-bucket/db")
	t.Setenv(EnvFolder, "/tmp/envdata")
	t.Setenv(EnvDBName, "envdb.sqlite")

	cfg := &ReplicationConfig{}
	cfg.SetDefaults()
	cfg.LoadFromEnvironment()

	assert.Equal(t, "env-key", cfg.AccessKeyID)
	assert.Equal(t, "env-token", cfg.SecretAccessKey)
	assert.Equal(t, "s3://env-bucket/db", cfg.ReplicaURL)
	assert.Equal(t, "/tmp/envdata", cfg.Folder)
	assert.Equal(t, "envdb.sqlite", cfg.DBName)
}
