// Package gcs implements the object storage backend for Google Cloud Storage.
//
// Addresses keep the pipeline's "s3://" URL form regardless of the provider
// behind them; the bucket segment names the GCS bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/stowage-io/stowage/datastore"
	"github.com/stowage-io/stowage/s3path"
)

// writeChunkSize is the GCS writer chunk size for streamed uploads.
const writeChunkSize = 16 * 1024 * 1024 // 16MB

// Storage implements datastore.ObjectStorage against Google Cloud Storage.
// The injected client is shared across calls and is safe for concurrent use.
type Storage struct {
	client *storage.Client
}

var _ datastore.ObjectStorage = (*Storage)(nil)

// New creates a GCS-backed ObjectStorage.
func New(client *storage.Client) *Storage {
	return &Storage{client: client}
}

func (s *Storage) object(addr string) (*storage.ObjectHandle, string, error) {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return nil, "", err
	}
	return s.client.Bucket(bucket).Object(key), key, nil
}

// CheckExists reports whether an object exists at the address.
func (s *Storage) CheckExists(ctx context.Context, addr string) (bool, error) {
	obj, _, err := s.object(addr)
	if err != nil {
		return false, err
	}

	if _, err := obj.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PutObject uploads raw bytes to the address.
func (s *Storage) PutObject(ctx context.Context, data []byte, addr string) error {
	obj, _, err := s.object(addr)
	if err != nil {
		return err
	}

	w := obj.NewWriter(ctx)
	w.ChunkSize = writeChunkSize
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// PutFile uploads the contents of the local file at localPath to the
// address as a streamed transfer.
func (s *Storage) PutFile(ctx context.Context, localPath, addr string) error {
	obj, _, err := s.object(addr)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := obj.NewWriter(ctx)
	w.ChunkSize = writeChunkSize
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// FetchFile downloads the object at the address into destDir, preserving
// the key's directory structure, and returns the resulting local path.
//
// A missing object propagates, wrapped so it satisfies
// errors.Is(err, datastore.ErrNotFound). No partial file is left behind on
// failure.
func (s *Storage) FetchFile(ctx context.Context, addr, destDir string) (string, error) {
	obj, key, err := s.object(addr)
	if err != nil {
		return "", err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: %w", datastore.ErrNotFound, err)
		}
		return "", err
	}
	defer func() { _ = r.Close() }()

	destPath := filepath.Join(destDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return destPath, nil
}
