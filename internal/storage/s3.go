package storage

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"litestream-sidecar/internal/apperrors"
	"litestream-sidecar/internal/config"
)

// S3Verifier checks replica reachability on Amazon S3
type S3Verifier struct {
	client  *s3.S3
	locator *Locator
}

// NewS3Verifier creates an S3Verifier using the configured static credentials.
// The region comes from the standard AWS environment; S3 redirects the
// HeadBucket call when it is wrong, which is good enough for a preflight.
func NewS3Verifier(cfg *config.ReplicationConfig, locator *Locator) (*S3Verifier, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // token
		),
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create AWS session", err)
	}

	return &S3Verifier{
		client:  s3.New(sess),
		locator: locator,
	}, nil
}

// Verify checks that the bucket exists and objects under the replica prefix
// can be listed with the configured credentials.
func (v *S3Verifier) Verify(ctx context.Context) error {
	_, err := v.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(v.locator.Bucket),
	})
	if err != nil {
		return apperrors.NewStorageError("replica preflight failed: bucket not accessible", err).
			WithContext("bucket", v.locator.Bucket)
	}

	_, err = v.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(v.locator.Bucket),
		Prefix:  aws.String(v.locator.Prefix),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return apperrors.NewStorageError("replica preflight failed: cannot list objects", err).
			WithContext("bucket", v.locator.Bucket)
	}

	return nil
}

// Provider returns the provider name
func (v *S3Verifier) Provider() string {
	return "s3"
}
