package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemDataStorage_FetchFile(t *testing.T) {
	ctx := context.Background()
	storage := NewFileSystemDataStorage()

	t.Run("CopiesUnderBasename", func(t *testing.T) {
		srcDir := t.TempDir()
		destDir := filepath.Join(t.TempDir(), "nested", "dest")

		data := []byte("hello world, this is a staged dataset artifact")
		srcPath := filepath.Join(srcDir, "part-000.bin")
		require.NoError(t, os.WriteFile(srcPath, data, 0o644))

		got, err := storage.FetchFile(ctx, srcPath, destDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(destDir, "part-000.bin"), got)

		fetched, err := os.ReadFile(got)
		require.NoError(t, err)
		assert.Equal(t, data, fetched)
	})

	t.Run("SourceNotFound", func(t *testing.T) {
		_, err := storage.FetchFile(ctx, filepath.Join(t.TempDir(), "missing.bin"), t.TempDir())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DestinationNotWritable", func(t *testing.T) {
		srcDir := t.TempDir()
		srcPath := filepath.Join(srcDir, "part-000.bin")
		require.NoError(t, os.WriteFile(srcPath, []byte("x"), 0o644))

		// A regular file in the destination path makes MkdirAll fail.
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		_, err := storage.FetchFile(ctx, srcPath, filepath.Join(blocker, "dest"))
		assert.Error(t, err)
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := storage.FetchFile(canceled, "unused", t.TempDir())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
