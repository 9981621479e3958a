// Package minio provides an ObjectStorage implementation using the MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system. This package
// uses the official MinIO Go client library for optimal compatibility with MinIO
// and other S3-compatible storage systems like Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	storage := miniostore.New(client)
//	ok, err := storage.CheckExists(ctx, "s3://datasets/scenes/row-0")
//
// Addresses keep the pipeline's "s3://" URL form regardless of the provider
// behind them; the bucket segment names the MinIO bucket.
//
// # Features
//
//   - Native MinIO client with optimal performance
//   - Works with any S3-compatible storage (Ceph, Garage, SeaweedFS)
//   - Streamed file transfers without buffering whole objects in memory
//   - Air-gap friendly (no AWS dependencies required)
package minio
