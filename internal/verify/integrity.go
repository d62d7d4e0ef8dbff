// Package verify runs local integrity checks against a restored sqlite
// database file before the application is allowed to start on top of it.
package verify

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"litestream-sidecar/internal/apperrors"
)

// sqliteMagic is the 16-byte header prefix of every sqlite3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// Checker validates restored database files
type Checker struct{}

// NewChecker creates a Checker
func NewChecker() *Checker {
	return &Checker{}
}

// Check validates the database at dbPath: the file must exist, carry the
// sqlite header, and pass PRAGMA integrity_check. The file is opened
// read-only so a failed check leaves it byte-identical.
func (c *Checker) Check(ctx context.Context, dbPath string) error {
	if err := c.checkHeader(dbPath); err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return apperrors.NewIntegrityError("failed to open database", err).
			WithContext("db_path", dbPath)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return apperrors.NewIntegrityError("integrity check query failed", err).
			WithContext("db_path", dbPath)
	}

	if result != "ok" {
		return apperrors.NewIntegrityError(
			fmt.Sprintf("integrity check failed: %s", result), nil).
			WithContext("db_path", dbPath)
	}

	return nil
}

// checkHeader verifies the sqlite magic bytes without involving the driver,
// so a zero-length or truncated restore fails fast with a clear message.
func (c *Checker) checkHeader(dbPath string) error {
	f, err := os.Open(dbPath)
	if err != nil {
		return apperrors.NewIntegrityError("database file not readable", err).
			WithContext("db_path", dbPath)
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	n, err := f.Read(header)
	if err != nil || n < len(sqliteMagic) {
		return apperrors.NewIntegrityError("database file is truncated", err).
			WithContext("db_path", dbPath)
	}

	if !bytes.Equal(header, sqliteMagic) {
		return apperrors.NewIntegrityError("file is not a sqlite database", nil).
			WithContext("db_path", dbPath)
	}

	return nil
}
