package minio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/stowage-io/stowage/datastore"
	"github.com/stowage-io/stowage/s3path"
)

// Storage implements datastore.ObjectStorage for MinIO and S3-compatible
// storage. The injected client is shared across calls and is safe for
// concurrent use.
type Storage struct {
	client *minio.Client
}

var _ datastore.ObjectStorage = (*Storage)(nil)

// New creates a MinIO-backed ObjectStorage.
func New(client *minio.Client) *Storage {
	return &Storage{client: client}
}

// CheckExists reports whether an object exists at the address.
func (s *Storage) CheckExists(ctx context.Context, addr string) (bool, error) {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return false, err
	}

	_, err = s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PutObject uploads raw bytes to the address.
func (s *Storage) PutObject(ctx context.Context, data []byte, addr string) error {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// PutFile uploads the contents of the local file at localPath to the
// address as a streamed transfer.
func (s *Storage) PutFile(ctx context.Context, localPath, addr string) error {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return err
	}

	// FPutObject streams from disk but reports a missing local file through
	// the transfer machinery; stat first so the caller sees a plain
	// not-exist error instead.
	if _, err := os.Stat(localPath); err != nil {
		return err
	}

	_, err = s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{})
	return err
}

// FetchFile downloads the object at the address into destDir, preserving
// the key's directory structure, and returns the resulting local path.
//
// A missing object propagates, wrapped so it satisfies
// errors.Is(err, datastore.ErrNotFound).
func (s *Storage) FetchFile(ctx context.Context, addr, destDir string) (string, error) {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}

	if err := s.client.FGetObject(ctx, bucket, key, destPath, minio.GetObjectOptions{}); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %w", datastore.ErrNotFound, err)
		}
		return "", err
	}
	return destPath, nil
}

// isNotFound reports whether err is the store's not-found condition.
func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}
