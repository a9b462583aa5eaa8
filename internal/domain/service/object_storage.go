package service

import (
	"context"

	"storefront/internal/errors"
)

// ErrObjectNotFound is returned by Download for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage uploads files to the gateway bucket.
type ObjectStorage interface {
	// Upload stores data under key and returns its publicly resolvable reference.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Download returns the object stored under key and its content type.
	Download(ctx context.Context, key string) ([]byte, string, error)

	// Close releases the bucket.
	Close() error
}
