package colfile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/stowage-io/stowage/datastore"
	"github.com/stowage-io/stowage/s3path"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Dataset names the dataset the column files belong to. Required when
	// the path factory is dataset-scoped.
	Dataset string
	// CacheDir is where fetched column files land. Defaults to a fresh
	// temporary directory.
	CacheDir string
}

// Reader resolves locations back into payload bytes, fetching each column
// file through the underlying storage.
type Reader struct {
	storage  datastore.DataStorage
	dir      string
	cacheDir string
}

// NewReader creates a Reader fetching column files through the given
// storage. Wrap the storage with datastore.NewCachingStorage so repeated
// reads of the same file are served from disk.
func NewReader(storage datastore.DataStorage, paths *s3path.Factory, optFns ...func(*ReaderOptions)) (*Reader, error) {
	if storage == nil {
		return nil, errors.New("storage required")
	}
	if paths == nil {
		return nil, errors.New("path factory required")
	}

	var opts ReaderOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var pathOpts []func(*s3path.PathOptions)
	if opts.Dataset != "" {
		pathOpts = append(pathOpts, s3path.WithDatasetName(opts.Dataset))
	}
	dir, err := paths.ColumnConcatenatedBytesFilesPath(pathOpts...)
	if err != nil {
		return nil, err
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir, err = os.MkdirTemp("", "stowage-colfile-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create column file cache dir: %w", err)
		}
	}

	return &Reader{storage: storage, dir: dir, cacheDir: cacheDir}, nil
}

// Read fetches the column file named by the location and returns the
// payload bytes at [Offset, Offset+Size).
func (r *Reader) Read(ctx context.Context, loc Location) ([]byte, error) {
	if loc.Offset < 0 || loc.Size < 0 {
		return nil, fmt.Errorf("%w: negative offset or size", ErrCorruptLocation)
	}

	addr := s3path.Join(r.dir, loc.FileID.String())
	local, err := r.storage.FetchFile(ctx, addr, r.cacheDir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("failed to open fetched column file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat fetched column file: %w", err)
	}
	if loc.Offset+loc.Size > fi.Size() {
		return nil, fmt.Errorf("column file %s is %d bytes, location wants [%d, %d)",
			loc.FileID, fi.Size(), loc.Offset, loc.Offset+loc.Size)
	}

	data := make([]byte, loc.Size)
	if n, err := f.ReadAt(data, loc.Offset); err != nil && n < len(data) {
		return nil, fmt.Errorf("failed to read column file %s: %w", loc.FileID, err)
	}
	return data, nil
}
