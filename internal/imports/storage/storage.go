// Package storage keeps uploaded import sheets on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"time"
)

// Driver stores import sheets by key.
type Driver interface {
	// Save writes body under key.
	Save(ctx context.Context, key string, body io.Reader, contentType string) error

	// Get streams the stored sheet back together with its content type.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Delete removes the sheet. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a link to the stored sheet, valid for at least expires when
	// the driver issues signed links.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}
