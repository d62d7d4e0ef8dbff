package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"litestream-sidecar/internal/apperrors"
	"litestream-sidecar/internal/config"
)

// AzureVerifier checks replica reachability on Azure Blob Storage. An abs
// locator is abs://account/container/prefix; the configured key pair maps to
// the storage account name and shared key.
type AzureVerifier struct {
	serviceURL azblob.ServiceURL
	container  string
	prefix     string
}

// NewAzureVerifier creates an AzureVerifier
func NewAzureVerifier(cfg *config.ReplicationConfig, locator *Locator) (*AzureVerifier, error) {
	container, prefix := splitContainer(locator.Prefix)
	if container == "" {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("replica URL %q is missing a container segment", cfg.ReplicaURL), nil)
	}

	credential, err := azblob.NewSharedKeyCredential(locator.Bucket, cfg.SecretAccessKey)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create Azure credentials", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", locator.Bucket))
	if err != nil {
		return nil, apperrors.NewStorageError("failed to parse Azure service URL", err)
	}

	return &AzureVerifier{
		serviceURL: azblob.NewServiceURL(*serviceURL, pipeline),
		container:  container,
		prefix:     prefix,
	}, nil
}

// Verify checks that the container exists and blobs under the replica
// prefix can be listed.
func (v *AzureVerifier) Verify(ctx context.Context) error {
	containerURL := v.serviceURL.NewContainerURL(v.container)

	if _, err := containerURL.GetProperties(ctx, azblob.LeaseAccessConditions{}); err != nil {
		return apperrors.NewStorageError("replica preflight failed: container not accessible", err).
			WithContext("container", v.container)
	}

	_, err := containerURL.ListBlobsFlatSegment(ctx, azblob.Marker{}, azblob.ListBlobsSegmentOptions{
		Prefix:     v.prefix,
		MaxResults: 1,
	})
	if err != nil {
		return apperrors.NewStorageError("replica preflight failed: cannot list blobs", err).
			WithContext("container", v.container)
	}

	return nil
}

// Provider returns the provider name
func (v *AzureVerifier) Provider() string {
	return "abs"
}

func splitContainer(path string) (container, prefix string) {
	parts := strings.SplitN(path, "/", 2)
	container = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return container, prefix
}
