// Package s3 implements the object storage backend for Amazon S3.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stowage-io/stowage/datastore"
	"github.com/stowage-io/stowage/s3path"
)

// Client is the interface for the S3 operations used by Storage.
// It is satisfied by *s3.Client and can be replaced with a mock in tests.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

var _ Client = (*s3.Client)(nil)

// Storage implements datastore.ObjectStorage against Amazon S3.
//
// Addresses are URL form ("s3://bucket/key"); decomposition happens here so
// callers never deal with bucket/key pairs directly. The injected client is
// shared across calls and must be safe for concurrent use, which *s3.Client
// is. Retry and timeout policy belongs to the client configuration, not to
// this layer.
type Storage struct {
	client     Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

var _ datastore.ObjectStorage = (*Storage)(nil)

// Options configures the S3 storage backend.
type Options struct {
	// Transfer tunes the transfer manager used by PutFile and FetchFile.
	Transfer TransferConfig
}

// New creates an S3-backed ObjectStorage using the injected client.
func New(client Client, optFns ...func(*Options)) *Storage {
	opts := Options{
		Transfer: DefaultTransferConfig(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Storage{
		client:     client,
		uploader:   newUploader(client, opts.Transfer),
		downloader: newDownloader(client, opts.Transfer),
	}
}

// CheckExists reports whether an object exists at the address.
//
// The existence probe is metadata only. A not-found condition maps to
// (false, nil); any other error propagates.
func (s *Storage) CheckExists(ctx context.Context, addr string) (bool, error) {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
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

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// PutFile uploads the contents of the local file at localPath to the
// address as a streamed multipart transfer.
func (s *Storage) PutFile(ctx context.Context, localPath, addr string) error {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	return err
}

// FetchFile downloads the object at the address into destDir, preserving
// the key's directory structure, and returns the resulting local path.
//
// A missing object is not suppressed: the transport error propagates,
// wrapped so it satisfies errors.Is(err, datastore.ErrNotFound). No partial
// file is left behind on failure.
func (s *Storage) FetchFile(ctx context.Context, addr, destDir string) (string, error) {
	bucket, key, err := s3path.BucketKey(addr)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(destPath)
	if err != nil {
		return "", err
	}

	if _, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %w", datastore.ErrNotFound, err)
		}
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}
	return destPath, nil
}

// isNotFound reports whether err is the store's not-found condition.
// HeadObject surfaces it as types.NotFound, GetObject as types.NoSuchKey;
// anything else is matched on the API error code.
func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
