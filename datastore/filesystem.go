package datastore

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// FileSystemDataStorage implements DataStorage against the local filesystem,
// typically a dataset mount standing in for the remote store.
type FileSystemDataStorage struct{}

var _ DataStorage = (*FileSystemDataStorage)(nil)

// NewFileSystemDataStorage creates a filesystem-backed DataStorage.
func NewFileSystemDataStorage() *FileSystemDataStorage {
	return &FileSystemDataStorage{}
}

// FetchFile copies the file at sourcePath into destDir under its base
// filename, creating the destination directory tree as needed, and returns
// the final path.
func (s *FileSystemDataStorage) FetchFile(ctx context.Context, sourcePath, destDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		// os.Open reports a missing source as os.ErrNotExist, which
		// already satisfies errors.Is(err, ErrNotFound).
		return "", err
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, filepath.Base(sourcePath))
	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return destPath, nil
}
