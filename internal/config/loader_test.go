package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litestream-sidecar/internal/apperrors"
)

func resetEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv(EnvAccessKeyID, "key")
	t.Setenv(EnvSecretAccessKey, "token")
	t.Setenv(EnvReplicaURL, "s3://bucket/db")
}

func TestLoader_Load_EnvironmentOnly(t *testing.T) {
	resetEnv(t)

	cfg, err := NewLoader("").Load()

	require.NoError(t, err)
	assert.Equal(t, "key", cfg.AccessKeyID)
	assert.Equal(t, "token", cfg.SecretAccessKey)
	assert.Equal(t, "s3://bucket/db", cfg.ReplicaURL)
	assert.Equal(t, DefaultDBName, cfg.DBName)
	assert.Equal(t, DefaultBinary, cfg.Binary)
}

func TestLoader_Load_MissingRequired(t *testing.T) {
	viper.Reset()
	t.Setenv(EnvAccessKeyID, "")
	t.Setenv(EnvSecretAccessKey, "")
	t.Setenv(EnvReplicaURL, "")

	_, err := NewLoader("").Load()

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), EnvSecretAccessKey)
}

func TestLoader_Load_FileThenEnvOverride(t *testing.T) {
	resetEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `replica_url: s3://file-bucket/db
folder: /tmp/file-data
db: filedb.sqlite
window: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader(path).Load()

	require.NoError(t, err)
	// Environment wins over the file for the replica URL.
	assert.Equal(t, "s3://bucket/db", cfg.ReplicaURL)
	assert.Equal(t, "/tmp/file-data", cfg.Folder)
	assert.Equal(t, "filedb.sqlite", cfg.DBName)
	assert.Equal(t, "45s", cfg.Window.String())
}

func TestLoader_Load_MissingFileIsNotAnError(t *testing.T) {
	resetEnv(t)

	cfg, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()

	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/db", cfg.ReplicaURL)
}

func TestLoader_Load_MalformedFile(t *testing.T) {
	resetEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("replica_url: [broken"), 0o600))

	_, err := NewLoader(path).Load()

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestLoader_SaveAndReload(t *testing.T) {
	resetEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	loader := NewLoader(path)

	cfg := &ReplicationConfig{
		AccessKeyID:     "key",
		SecretAccessKey: "token",
		ReplicaURL:      "s3://bucket/db",
		Folder:          t.TempDir(),
	}
	cfg.SetDefaults()

	require.NoError(t, loader.Save(cfg))

	// Secrets must not be persisted.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "token")
	assert.Contains(t, string(data), "s3://bucket/db")

	reloaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Folder, reloaded.Folder)
	assert.Equal(t, cfg.DBName, reloaded.DBName)
}

func TestLoader_Save_RejectsInvalid(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "config.yaml"))
	cfg := &ReplicationConfig{}
	cfg.SetDefaults()

	err := loader.Save(cfg)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestSampleConfig(t *testing.T) {
	sample := SampleConfig()

	assert.Contains(t, sample, "replica_url:")
	assert.Contains(t, sample, EnvAccessKeyID)
	assert.Contains(t, sample, "snapshot:")
}
