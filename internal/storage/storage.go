package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	cfg "github.com/templui/datafolio/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage holds uploaded file bytes keyed by {ownerId}/{fileName}.
type Storage interface {
	// Save stores the object at the given path
	Save(ctx context.Context, path string, body io.Reader, size int64, contentType string) error

	// Open returns the object's content; callers close it
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path
	Delete(ctx context.Context, path string) error

	// PresignedURL returns a temporary download link
	PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// New creates the storage backend selected by STORAGE_DRIVER.
func New(ctx context.Context, c *cfg.Config) (Storage, error) {
	if c.StorageDriver == cfg.StorageMemory {
		slog.Warn("using in-memory storage, uploads are lost on restart")
		return NewMemoryStorage(), nil
	}

	slog.Info("initializing S3 storage",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)
	return NewS3Storage(ctx, S3Config{
		Region:    c.S3Region,
		Bucket:    c.S3Bucket,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Endpoint:  c.S3Endpoint,
	})
}
