package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// BlobStore persists uploaded audio blobs for the authenticated history path
// and returns a location handle. Save keys are opaque to callers; pass them
// back to URL/Delete unchanged.
type BlobStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (key string, err error)
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	Backend() string
}

// LocalStore writes blobs under a date-partitioned directory tree on local
// disk, e.g. static/uploads/2026/09/01/<uuid>_<name>.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the store rooted at baseDir.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

// Backend identifies this store in StoredBlob rows.
func (s *LocalStore) Backend() string { return "local" }

// Save writes the blob and returns its path relative to the base directory.
func (s *LocalStore) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	now := time.Now()
	rel := filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02"))
	dir := filepath.Join(s.baseDir, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	base := filepath.Base(name)
	if base == "." || base == "" {
		base = "audio"
	}
	key := filepath.Join(rel, uuid.NewString()+"_"+base)
	if err := os.WriteFile(filepath.Join(s.baseDir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return key, nil
}

// URL returns a static-files URL for the key. Local URLs do not expire.
func (s *LocalStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "/static/uploads/" + filepath.ToSlash(key), nil
}

// Delete removes the blob file. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.baseDir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// Open reads a stored blob back, mainly for tests and admin tooling.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.baseDir, key))
}
