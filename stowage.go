package stowage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stowage-io/stowage/codec"
	"github.com/stowage-io/stowage/colfile"
	"github.com/stowage-io/stowage/config"
	"github.com/stowage-io/stowage/datastore"
	gcsstore "github.com/stowage-io/stowage/datastore/gcs"
	miniostore "github.com/stowage-io/stowage/datastore/minio"
	s3store "github.com/stowage-io/stowage/datastore/s3"
	"github.com/stowage-io/stowage/rowindex"
	"github.com/stowage-io/stowage/s3path"
	"github.com/stowage-io/stowage/writer"
)

// Backend names accepted in config.StorageConfig.Backend.
const (
	BackendS3         = "s3"
	BackendMinIO      = "minio"
	BackendGCS        = "gcs"
	BackendFilesystem = "filesystem"

	// backendCustom labels a storage injected via WithStorage.
	backendCustom = "custom"
)

// Stowage is the storage facade: one handle bundling the selected backend,
// the address factory, and the dataset writer wiring.
type Stowage struct {
	backend    string
	storage    datastore.DataStorage
	closer     io.Closer
	paths      *s3path.Factory
	codec      codec.Codec
	compressor codec.Compressor
	rowIndex   writer.RowIndex
	download   config.DownloadConfig
	metrics    MetricsCollector
	logger     *Logger
}

// Open creates a Stowage instance from the given configuration.
//
// The backend is selected by cfg.Storage.Backend: "s3" (default), "minio",
// "gcs" or "filesystem". A nil cfg falls back to the process-wide
// configuration from config.Load. WithStorage bypasses backend selection
// entirely while the address factory settings still apply.
//
// When cfg.DynamoDB.TableName is set and no WithRowIndex option is given,
// dataset writers publish entries to the DynamoDB-backed row index.
func Open(ctx context.Context, cfg *config.Config, optFns ...Option) (*Stowage, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	opts := applyOptions(optFns)

	if cfg.Storage.DatasetsRootPath == "" {
		return nil, ErrDatasetsRootRequired
	}

	backend := cfg.Storage.Backend
	if backend == "" {
		backend = BackendS3
	}

	storage := opts.storage
	var closer io.Closer
	if storage == nil {
		var err error
		storage, closer, err = openBackend(ctx, backend, cfg)
		if err != nil {
			opts.logger.LogOpen(ctx, backend, cfg.Storage.DatasetsRootPath, err)
			return nil, err
		}
	} else {
		backend = backendCustom
	}

	rowIndex := opts.rowIndex
	if rowIndex == nil {
		var err error
		rowIndex, err = openRowIndex(ctx, cfg)
		if err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			opts.logger.LogOpen(ctx, backend, cfg.Storage.DatasetsRootPath, err)
			return nil, err
		}
	}

	paths := s3path.NewFactory(cfg.Storage.DatasetsRootPath, func(o *s3path.FactoryOptions) {
		o.PrefixReplacePath = cfg.Storage.PrefixReplacePath
		o.DatasetScoped = cfg.Storage.DatasetScoped
	})

	st := &Stowage{
		backend:    backend,
		storage:    storage,
		closer:     closer,
		paths:      paths,
		codec:      opts.codec,
		compressor: opts.compressor,
		rowIndex:   rowIndex,
		download:   cfg.Download,
		metrics:    opts.metricsCollector,
		logger:     opts.logger,
	}

	st.logger.LogOpen(ctx, backend, cfg.Storage.DatasetsRootPath, nil)
	return st, nil
}

// Backend returns the name of the active storage backend.
func (st *Stowage) Backend() string {
	return st.backend
}

// Storage returns the active storage facade.
func (st *Stowage) Storage() datastore.DataStorage {
	return st.storage
}

// ObjectStorage returns the active backend's object store capability set.
// The second return is false when the backend only supports file fetches,
// as the filesystem backend does.
func (st *Stowage) ObjectStorage() (datastore.ObjectStorage, bool) {
	obj, ok := st.storage.(datastore.ObjectStorage)
	return obj, ok
}

// CachedStorage returns the active storage wrapped with a read-through
// local cache applying the configured download retry policy. Repeated
// fetches into the same destination directory are served locally.
func (st *Stowage) CachedStorage() *datastore.CachingStorage {
	return datastore.NewCachingStorage(st.storage, func(o *datastore.CachingOptions) {
		o.Retries = st.download.Retries
		o.RetryDelay = st.download.RetryDelay
		o.RetryBackoff = st.download.RetryBackoff
		o.Timeout = st.download.Timeout
	})
}

// Paths returns the address factory derived from the configuration.
func (st *Stowage) Paths() *s3path.Factory {
	return st.paths
}

// FetchFile downloads the artifact at the given address into destDir and
// returns the local path of the fetched copy.
func (st *Stowage) FetchFile(ctx context.Context, addr, destDir string) (string, error) {
	start := time.Now()
	local, err := st.storage.FetchFile(ctx, addr, destDir)
	duration := time.Since(start)

	var size int64
	if err == nil {
		if fi, statErr := os.Stat(local); statErr == nil {
			size = fi.Size()
		}
	}
	st.metrics.RecordFetch(size, duration, err)
	st.logger.LogFetchFile(ctx, addr, local, err)
	return local, err
}

// CheckExists reports whether an object exists at the address.
// Requires a backend with object store support.
func (st *Stowage) CheckExists(ctx context.Context, addr string) (bool, error) {
	start := time.Now()
	var exists bool
	obj, err := st.object()
	if err == nil {
		exists, err = obj.CheckExists(ctx, addr)
	}
	duration := time.Since(start)
	st.metrics.RecordCheckExists(duration, err)
	st.logger.LogCheckExists(ctx, addr, exists, err)
	return exists, err
}

// PutObject uploads raw bytes to the address.
// Requires a backend with object store support.
func (st *Stowage) PutObject(ctx context.Context, data []byte, addr string) error {
	start := time.Now()
	obj, err := st.object()
	if err == nil {
		err = obj.PutObject(ctx, data, addr)
	}
	duration := time.Since(start)
	st.metrics.RecordPut(int64(len(data)), duration, err)
	st.logger.LogPutObject(ctx, addr, len(data), err)
	return err
}

// PutFile uploads the contents of the local file at localPath to the address.
// Requires a backend with object store support.
func (st *Stowage) PutFile(ctx context.Context, localPath, addr string) error {
	start := time.Now()
	var size int64
	if fi, statErr := os.Stat(localPath); statErr == nil {
		size = fi.Size()
	}
	obj, err := st.object()
	if err == nil {
		err = obj.PutFile(ctx, localPath, addr)
	}
	duration := time.Since(start)
	st.metrics.RecordPut(size, duration, err)
	st.logger.LogPutFile(ctx, localPath, addr, err)
	return err
}

// NewDatasetWriter creates a buffered writer staging rows of the given
// dataset into this instance's storage. The facade's codec, compressor and
// row index seed the writer options; per-writer overrides win.
func (st *Stowage) NewDatasetWriter(dataset writer.Dataset, optFns ...func(*writer.Options)) (*writer.AsyncWriter, error) {
	obj, ok := st.ObjectStorage()
	if !ok {
		return nil, fmt.Errorf("%w: backend %q", ErrObjectStorageRequired, st.backend)
	}

	seeded := append([]func(*writer.Options){
		func(o *writer.Options) {
			o.Codec = st.codec
			o.Compressor = st.compressor
			o.Index = st.rowIndex
			o.OnFlush = func(count int, d time.Duration, err error) {
				st.metrics.RecordWriterFlush(count, d, err)
				st.logger.LogWriterFlush(context.Background(), dataset.ID, count, err)
			}
		},
	}, optFns...)

	return writer.New(dataset, obj, st.paths, seeded...)
}

// NewColumnFileWriter creates a writer packing payloads into column files
// under this instance's column files path.
func (st *Stowage) NewColumnFileWriter(optFns ...func(*colfile.Options)) (*colfile.Writer, error) {
	obj, ok := st.ObjectStorage()
	if !ok {
		return nil, fmt.Errorf("%w: backend %q", ErrObjectStorageRequired, st.backend)
	}
	return colfile.NewWriter(obj, st.paths, optFns...)
}

// NewColumnFileReader creates a reader resolving column file locations
// through the cached storage, so repeated reads of one file are served
// from disk.
func (st *Stowage) NewColumnFileReader(optFns ...func(*colfile.ReaderOptions)) (*colfile.Reader, error) {
	return colfile.NewReader(st.CachedStorage(), st.paths, optFns...)
}

func (st *Stowage) object() (datastore.ObjectStorage, error) {
	obj, ok := st.storage.(datastore.ObjectStorage)
	if !ok {
		return nil, fmt.Errorf("%w: backend %q", ErrObjectStorageRequired, st.backend)
	}
	return obj, nil
}

func openBackend(ctx context.Context, backend string, cfg *config.Config) (datastore.DataStorage, io.Closer, error) {
	switch backend {
	case BackendFilesystem:
		return datastore.NewFileSystemDataStorage(), nil, nil

	case BackendS3:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := s3store.New(client, func(o *s3store.Options) {
			if cfg.Download.PartSizeMB > 0 {
				o.Transfer.PartSize = int64(cfg.Download.PartSizeMB) * 1024 * 1024
			}
			if cfg.Download.Concurrency > 0 {
				o.Transfer.Concurrency = cfg.Download.Concurrency
			}
		})
		return store, nil, nil

	case BackendMinIO:
		client, err := newMinioClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return miniostore.New(client), nil, nil

	case BackendGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("stowage: failed to create gcs client: %w", err)
		}
		return gcsstore.New(client), client, nil

	default:
		return nil, nil, &ErrUnknownBackend{Backend: backend}
	}
}

// newS3Client builds an S3 client with the configured transport tuning.
// The HTTP client timeout bounds the full request, standing in for a
// per-read deadline.
func newS3Client(ctx context.Context, cfg *config.Config) (*awss3.Client, error) {
	httpClient := awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			if cfg.S3.ConnectTimeout > 0 {
				d.Timeout = cfg.S3.ConnectTimeout
			}
		}).
		WithTransportOptions(func(tr *http.Transport) {
			if cfg.S3.MaxPoolConnections > 0 {
				tr.MaxIdleConnsPerHost = cfg.S3.MaxPoolConnections
			}
		})
	if cfg.S3.ReadTimeout > 0 {
		httpClient = httpClient.WithTimeout(cfg.S3.ReadTimeout)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.S3.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3.Region))
	}
	if cfg.S3.MaxRetries > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(cfg.S3.MaxRetries))
	}
	if cfg.S3.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("stowage: failed to load aws config: %w", err)
	}

	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.S3.Endpoint != "" {
			// Path-style addressing is required for custom S3-compatible
			// endpoints.
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func newMinioClient(cfg *config.Config) (*minio.Client, error) {
	if cfg.S3.Endpoint == "" {
		return nil, ErrEndpointRequired
	}

	var creds *miniocreds.Credentials
	if cfg.S3.AccessKey != "" {
		creds = miniocreds.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, "")
	} else {
		creds = miniocreds.NewEnvAWS()
	}

	client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.S3.UseSSL,
		Region: cfg.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("stowage: failed to create minio client: %w", err)
	}
	return client, nil
}

// openRowIndex builds the DynamoDB-backed row index named by the
// configuration. An empty table name disables indexing.
func openRowIndex(ctx context.Context, cfg *config.Config) (writer.RowIndex, error) {
	if cfg.DynamoDB.TableName == "" {
		return nil, nil
	}

	region := cfg.DynamoDB.Region
	if region == "" {
		region = cfg.S3.Region
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("stowage: failed to load aws config: %w", err)
	}

	return rowindex.New(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDB.TableName), nil
}
