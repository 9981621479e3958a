package datastore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/stowage-io/stowage/s3path"
)

// MemoryDataStorage is an in-memory ObjectStorage implementation for testing.
// It stores objects keyed by their full address without any network or
// filesystem dependency. Thread-safe for concurrent reads and writes.
type MemoryDataStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ ObjectStorage = (*MemoryDataStorage)(nil)

// NewMemoryDataStorage creates a new in-memory object store.
func NewMemoryDataStorage() *MemoryDataStorage {
	return &MemoryDataStorage{
		objects: make(map[string][]byte),
	}
}

// CheckExists reports whether an object was stored at the address.
func (m *MemoryDataStorage) CheckExists(_ context.Context, addr string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[addr]
	return ok, nil
}

// PutObject stores raw bytes at the address.
func (m *MemoryDataStorage) PutObject(_ context.Context, data []byte, addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	m.objects[addr] = copied
	return nil
}

// PutFile stores the contents of the local file at the address.
func (m *MemoryDataStorage) PutFile(ctx context.Context, localPath, addr string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	return m.PutObject(ctx, data, addr)
}

// FetchFile writes the object at the address into destDir under the full
// key, mirroring the remote backend's destination layout.
func (m *MemoryDataStorage) FetchFile(_ context.Context, addr, destDir string) (string, error) {
	_, key, err := s3path.BucketKey(addr)
	if err != nil {
		return "", err
	}

	m.mu.RLock()
	data, ok := m.objects[addr]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	destPath := filepath.Join(destDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return "", err
	}
	return destPath, nil
}

// Object returns the stored bytes for the address, for test assertions.
func (m *MemoryDataStorage) Object(addr string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[addr]
	if !ok {
		return nil, false
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, true
}

// Len returns the number of stored objects.
func (m *MemoryDataStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}
