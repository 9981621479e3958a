package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stowage-io/stowage/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Storage(t *testing.T) {
	bucket := os.Getenv("STOWAGE_S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: STOWAGE_S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	storage := New(s3.NewFromConfig(cfg))

	// Unique prefix for this test run
	prefix := fmt.Sprintf("test-stowage-%d", time.Now().UnixNano())
	addr := func(key string) string {
		return fmt.Sprintf("s3://%s/%s/%s", bucket, prefix, key)
	}

	t.Run("PutObjectAndCheckExists", func(t *testing.T) {
		data := make([]byte, 1024)
		_, _ = rand.Read(data)

		require.NoError(t, storage.PutObject(ctx, data, addr("row-0")))

		exists, err := storage.CheckExists(ctx, addr("row-0"))
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = storage.CheckExists(ctx, addr("nonexistent"))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("PutFileAndFetchFile", func(t *testing.T) {
		data := make([]byte, 1024*1024) // 1MB
		_, _ = rand.Read(data)

		localPath := filepath.Join(t.TempDir(), "part-000.bin")
		require.NoError(t, os.WriteFile(localPath, data, 0o644))

		require.NoError(t, storage.PutFile(ctx, localPath, addr("parts/part-000.bin")))

		destDir := t.TempDir()
		got, err := storage.FetchFile(ctx, addr("parts/part-000.bin"), destDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(destDir, prefix, "parts", "part-000.bin"), got)

		fetched, err := os.ReadFile(got)
		require.NoError(t, err)
		assert.Equal(t, data, fetched)
	})

	t.Run("FetchFileNotFound", func(t *testing.T) {
		_, err := storage.FetchFile(ctx, addr("nonexistent"), t.TempDir())
		assert.ErrorIs(t, err, datastore.ErrNotFound)
	})
}
