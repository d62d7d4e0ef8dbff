// Package storage performs optional preflight checks against the replica
// bucket. A preflight distinguishes unreachable buckets and bad credentials
// from failures of the replication tool itself; the subprocess contract
// stays authoritative either way.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"litestream-sidecar/internal/apperrors"
	"litestream-sidecar/internal/config"
)

// Verifier checks that the replica locator is reachable with the configured
// credentials before any subprocess is spawned.
type Verifier interface {
	// Verify returns a storage error when the replica bucket cannot be
	// reached or listed.
	Verify(ctx context.Context) error
	// Provider returns the provider name for logging
	Provider() string
}

// Locator is a parsed replica URL
type Locator struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocator splits a replica URL of the form scheme://bucket/prefix.
// For the abs scheme the bucket component is account/container.
func ParseLocator(replicaURL string) (*Locator, error) {
	u, err := url.Parse(replicaURL)
	if err != nil {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("malformed replica URL %q", replicaURL), err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("replica URL %q must look like scheme://bucket/path", replicaURL), nil)
	}

	return &Locator{
		Scheme: u.Scheme,
		Bucket: u.Host,
		Prefix: strings.TrimPrefix(u.Path, "/"),
	}, nil
}

// NewVerifier creates the verifier matching the replica URL scheme
func NewVerifier(cfg *config.ReplicationConfig) (Verifier, error) {
	locator, err := ParseLocator(cfg.ReplicaURL)
	if err != nil {
		return nil, err
	}

	switch locator.Scheme {
	case "s3":
		return NewS3Verifier(cfg, locator)
	case "gcs":
		return NewGCSVerifier(locator)
	case "abs":
		return NewAzureVerifier(cfg, locator)
	default:
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("unsupported replica scheme: %s", locator.Scheme), nil).
			WithContext("replica_url", cfg.ReplicaURL)
	}
}
