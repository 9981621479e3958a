// Package stowage provides a storage access layer for ML dataset pipelines.
//
// Stowage gives pipeline code one facade over local filesystems and remote
// object stores, plus a path factory that derives the canonical addresses
// dataset artifacts live under. Callers address artifacts by URL-form
// strings ("s3://bucket/key") and never touch bucket/key pairs or backend
// SDKs directly.
//
// # Quick Start
//
// Object store mode (S3 is the default backend):
//
//	cfg := config.Load()
//	st, err := stowage.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	local, _ := st.FetchFile(ctx, "s3://my-bucket/datasets/scenes/part-000.bin", "/tmp/cache")
//
// Filesystem mode (mounted datasets, no remote store):
//
//	cfg := config.Default()
//	cfg.Storage.Backend = "filesystem"
//	cfg.Storage.DatasetsRootPath = "/mnt/datasets"
//	st, _ := stowage.Open(ctx, cfg)
//
// MinIO and GCS backends swap in via cfg.Storage.Backend = "minio" / "gcs".
//
// # Path Derivation
//
// Addresses for dataset artifacts come from the factory, not from string
// concatenation in calling code:
//
//	root, _ := st.Paths().ColumnConcatenatedBytesFilesPath()
//	staging := st.Paths().TemporaryRowFilesPath("scenes")
//
// # Dataset Writing
//
// Writers buffer rows, stage them asynchronously under content hashes, and
// bound in-flight uploads:
//
//	w, _ := st.NewDatasetWriter(writer.Dataset{
//	    ID:          "scenes",
//	    PrimaryKeys: []string{"scene_id"},
//	})
//	_ = w.AddExample(ctx, "train", map[string]any{"scene_id": "scene-001", "frames": 42})
//	_ = w.Commit(ctx)
//
// With cfg.DynamoDB.TableName set, every staged row is also published to a
// sharded DynamoDB row index for unordered scans.
//
// # Key Features
//
//   - One facade over S3, MinIO, GCS and mounted filesystems
//   - URL-form addressing with bucket/key decomposition handled internally
//   - Path factory for column files, staging areas and dataset assets
//   - Buffered async dataset writer with bounded in-flight uploads
//   - Pluggable row codecs (JSON, go-json) and compression (zstd, LZ4)
//   - Sharded DynamoDB row index with paginated consistent scans
//   - Configuration via files, environment and .env (viper + godotenv)
package stowage
