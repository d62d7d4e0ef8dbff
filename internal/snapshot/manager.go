// Package snapshot archives the local database file before a
// delete-then-restore cycle overwrites it. Snapshots are compressed,
// optionally encrypted, and pruned down to a configured retention count.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"litestream-sidecar/internal/apperrors"
	"litestream-sidecar/internal/config"
	"litestream-sidecar/internal/logging"
)

const snapshotExt = ".snap"

// Info describes one snapshot archive on disk
type Info struct {
	Path      string
	Algorithm Algorithm
	Size      int64
	CreatedAt time.Time
}

// Manager takes and restores local safety snapshots
type Manager struct {
	cfg         config.SnapshotConfig
	compression *CompressionManager
	encryption  *EncryptionManager
	log         *logging.Logger
}

// NewManager creates a snapshot manager for the given configuration
func NewManager(cfg config.SnapshotConfig, log *logging.Logger) (*Manager, error) {
	if _, err := ParseAlgorithm(cfg.Compression); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewDefaultLogger()
	}
	return &Manager{
		cfg:         cfg,
		compression: NewCompressionManager(),
		encryption:  NewEncryptionManager(cfg.Passphrase),
		log:         log,
	}, nil
}

// Take archives dbPath into the snapshot directory and prunes old archives.
// A missing database file is not an error: there is nothing to protect on a
// first boot, so Take returns an empty path.
func (m *Manager) Take(dbPath string) (string, error) {
	data, err := os.ReadFile(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", apperrors.NewSnapshotError(
			fmt.Sprintf("failed to read %s", dbPath), err)
	}

	algorithm := Algorithm(m.cfg.Compression)
	compressed, err := m.compression.Compress(data, algorithm, m.cfg.Level)
	if err != nil {
		return "", err
	}

	encrypted, err := m.encryption.Encrypt(compressed)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return "", apperrors.NewSnapshotError(
			fmt.Sprintf("failed to create snapshot directory %s", m.cfg.Dir), err)
	}

	name := fmt.Sprintf("%s.%s.%s.%s%s",
		filepath.Base(dbPath),
		time.Now().UTC().Format("20060102T150405"),
		uuid.NewString()[:8],
		algorithm,
		snapshotExt,
	)
	path := filepath.Join(m.cfg.Dir, name)

	if err := os.WriteFile(path, encrypted, 0o600); err != nil {
		return "", apperrors.NewSnapshotError(
			fmt.Sprintf("failed to write snapshot %s", path), err)
	}

	m.log.Infof("snapshot taken: %s (%d -> %d bytes)", path, len(data), len(encrypted))

	if err := m.Prune(); err != nil {
		return path, err
	}
	return path, nil
}

// Restore decodes a snapshot archive back into destPath
func (m *Manager) Restore(snapshotPath, destPath string) error {
	algorithm, err := algorithmFromName(snapshotPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return apperrors.NewSnapshotError(
			fmt.Sprintf("failed to read snapshot %s", snapshotPath), err)
	}

	decrypted, err := m.encryption.Decrypt(data)
	if err != nil {
		return err
	}

	decompressed, err := m.compression.Decompress(decrypted, algorithm)
	if err != nil {
		return err
	}

	if err := os.WriteFile(destPath, decompressed, 0o644); err != nil {
		return apperrors.NewSnapshotError(
			fmt.Sprintf("failed to write %s", destPath), err)
	}

	m.log.Infof("snapshot restored: %s -> %s", snapshotPath, destPath)
	return nil
}

// List returns the snapshots on disk, newest first
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewSnapshotError(
			fmt.Sprintf("failed to read snapshot directory %s", m.cfg.Dir), err)
	}

	var snapshots []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		algorithm, err := algorithmFromName(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Info{
			Path:      filepath.Join(m.cfg.Dir, entry.Name()),
			Algorithm: algorithm,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// Prune deletes all but the newest KeepLatest snapshots
func (m *Manager) Prune() error {
	snapshots, err := m.List()
	if err != nil {
		return err
	}
	if len(snapshots) <= m.cfg.KeepLatest {
		return nil
	}

	for _, old := range snapshots[m.cfg.KeepLatest:] {
		if err := os.Remove(old.Path); err != nil {
			return apperrors.NewSnapshotError(
				fmt.Sprintf("failed to prune snapshot %s", old.Path), err)
		}
		m.log.Warnf("pruned snapshot %s", old.Path)
	}
	return nil
}

// algorithmFromName extracts the compression algorithm embedded in a
// snapshot file name (<db>.<stamp>.<id>.<algorithm>.snap).
func algorithmFromName(name string) (Algorithm, error) {
	trimmed := strings.TrimSuffix(filepath.Base(name), snapshotExt)
	i := strings.LastIndex(trimmed, ".")
	if i < 0 {
		return "", apperrors.NewSnapshotError(
			fmt.Sprintf("malformed snapshot name: %s", name), nil)
	}
	return ParseAlgorithm(trimmed[i+1:])
}
