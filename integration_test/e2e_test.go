package integration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stowage-io/stowage"
	"github.com/stowage-io/stowage/codec"
	"github.com/stowage-io/stowage/config"
	"github.com/stowage-io/stowage/s3path"
	"github.com/stowage-io/stowage/writer"
)

const (
	minioEndpoint  = "localhost:9000"
	minioAccessKey = "minioadmin"
	minioSecretKey = "minioadmin"
	minioBucket    = "test-stowage"
)

// TestE2E_MinIOBackend exercises the full facade against a running MinIO
// instance. Skip if not available.
func TestE2E_MinIOBackend(t *testing.T) {
	ctx := context.Background()

	admin, err := minio.New(minioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioAccessKey, minioSecretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}
	if _, err := admin.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := admin.BucketExists(ctx, minioBucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, admin.MakeBucket(ctx, minioBucket, minio.MakeBucketOptions{}))
	}

	prefix := fmt.Sprintf("run-%d", time.Now().UnixNano())
	defer func() {
		for obj := range admin.ListObjects(ctx, minioBucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			require.NoError(t, obj.Err)
			require.NoError(t, admin.RemoveObject(ctx, minioBucket, obj.Key, minio.RemoveObjectOptions{}))
		}
	}()

	// 1. Open the facade against the MinIO backend.
	cfg := config.Default()
	cfg.Storage.Backend = "minio"
	cfg.Storage.DatasetsRootPath = fmt.Sprintf("s3://%s/%s/datasets", minioBucket, prefix)
	cfg.S3.Endpoint = minioEndpoint
	cfg.S3.AccessKey = minioAccessKey
	cfg.S3.SecretKey = minioSecretKey
	cfg.S3.UseSSL = false

	st, err := stowage.Open(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	// 2. Object round trip through the facade.
	addr := s3path.Join(st.Paths().Root(), "objects/blob-0.bin")
	data := []byte("facade end to end payload")
	require.NoError(t, st.PutObject(ctx, data, addr))

	ok, err := st.CheckExists(ctx, addr)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := st.FetchFile(ctx, addr, t.TempDir())
	require.NoError(t, err)
	fetched, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)

	// 3. Stage dataset rows and fetch one back.
	w, err := st.NewDatasetWriter(
		writer.Dataset{ID: "scenes", PrimaryKeys: []string{"scene_id"}},
		func(o *writer.Options) { o.Compressor = codec.Zstd{} },
	)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		row := map[string]any{
			"scene_id": fmt.Sprintf("scene-%d", i),
			"payload":  []byte("sensor frame bytes"),
		}
		require.NoError(t, w.AddExample(ctx, "train", row))
	}
	require.NoError(t, w.Commit(ctx))

	key := writer.ExampleKey{Partition: "train", PrimaryKeyValues: []any{"scene-0"}}
	hash, err := key.Hash()
	require.NoError(t, err)

	rowAddr := s3path.Join(st.Paths().TemporaryRowFilesPath("scenes"), hash)
	ok, err = st.CheckExists(ctx, rowAddr)
	require.NoError(t, err)
	assert.True(t, ok)

	local, err := st.FetchFile(ctx, rowAddr, t.TempDir())
	require.NoError(t, err)

	raw, err := os.ReadFile(local)
	require.NoError(t, err)
	raw, err = (codec.Zstd{}).Decompress(raw)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, codec.Default.Unmarshal(raw, &decoded))
	assert.Equal(t, "scene-0", decoded["scene_id"])

	// 4. A warmed cache serves repeat fetches locally.
	cached := st.CachedStorage()
	destDir := t.TempDir()

	first, err := cached.FetchFile(ctx, addr, destDir)
	require.NoError(t, err)
	second, err := cached.FetchFile(ctx, addr, destDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.FileExists(t, filepath.Join(destDir, prefix, "datasets", "objects", "blob-0.bin"))
}
