package storage

import (
	"context"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"litestream-sidecar/internal/apperrors"
)

// GCSVerifier checks replica reachability on Google Cloud Storage.
// Credentials come from the ambient application-default chain, matching how
// the wrapped binary authenticates against gcs replicas.
type GCSVerifier struct {
	locator *Locator
}

// NewGCSVerifier creates a GCSVerifier
func NewGCSVerifier(locator *Locator) (*GCSVerifier, error) {
	return &GCSVerifier{locator: locator}, nil
}

// Verify checks that the bucket exists and objects under the replica prefix
// can be listed.
func (v *GCSVerifier) Verify(ctx context.Context) error {
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return apperrors.NewStorageError("failed to create GCS client", err)
	}
	defer client.Close()

	bucket := client.Bucket(v.locator.Bucket)

	if _, err := bucket.Attrs(ctx); err != nil {
		return apperrors.NewStorageError("replica preflight failed: bucket not accessible", err).
			WithContext("bucket", v.locator.Bucket)
	}

	it := bucket.Objects(ctx, &gcstorage.Query{Prefix: v.locator.Prefix})
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return apperrors.NewStorageError("replica preflight failed: cannot list objects", err).
			WithContext("bucket", v.locator.Bucket)
	}

	return nil
}

// Provider returns the provider name
func (v *GCSVerifier) Provider() string {
	return "gcs"
}
