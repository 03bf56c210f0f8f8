package gcsuploader

import (
	"context"
	"io"
)

// StorageService defines the object storage operations used by the ledger
// snapshot export. It enables mocking of GCS in tests.
type StorageService interface {
	// Upload writes the contents of r to bucket/object.
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) error

	// Download returns the bytes stored at bucket/object.
	Download(ctx context.Context, bucket, object string) ([]byte, error)
}
