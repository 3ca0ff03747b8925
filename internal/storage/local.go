package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Local stores documents on the filesystem. Development default, also
// fine for single-node deployments.
type Local struct {
	basePath string
	baseURL  string
}

var _ Storage = (*Local)(nil)

// NewLocal creates the archive directory if needed.
func NewLocal(basePath, baseURL string) (*Local, error) {
	if basePath == "" {
		basePath = "data/archive"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Local{basePath: basePath, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put writes the content to disk under key.
func (l *Local) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	full := l.path(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return l.URL(key), nil
}

// Get opens the file at key.
func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes the file at key.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL joins the configured base URL with the key.
func (l *Local) URL(key string) string {
	return path.Join("/", l.baseURL, key)
}

// PresignedURL returns the plain URL; local files are served by the app
// behind its own auth, so there is nothing to sign.
func (l *Local) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return l.URL(key), nil
}

// Exists stats the file at key.
func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := os.Stat(l.path(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return true, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}
