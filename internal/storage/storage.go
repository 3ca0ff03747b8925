// Package storage archives rendered invoice PDFs. Backends share one
// interface; the factory selects by config.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Storage is the archive backend for rendered invoice documents.
type Storage interface {
	// Put stores the content under key and returns its URL.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves the content at key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content at key. A missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a stable URL for the key without touching the backend.
	URL(key string) string

	// PresignedURL returns a time-limited download URL for the key.
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether the key holds content.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and parameterizes the backend.
type Config struct {
	Provider string // "local" or "s3"; empty means local

	LocalPath string
	LocalURL  string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string // optional, for S3-compatible stores like R2 or MinIO
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string // optional, when the bucket is fronted by a CDN
}

// New creates the configured backend.
func New(cfg Config) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(cfg.LocalPath, cfg.LocalURL)
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// InvoiceKey is the archive key for one invoice's PDF.
func InvoiceKey(advocateID uuid.UUID, invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s/%s.pdf", advocateID, invoiceNumber)
}
