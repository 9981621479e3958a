package colfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stowage-io/stowage/datastore"
	"github.com/stowage-io/stowage/s3path"
)

// Options configures a Writer.
type Options struct {
	// TargetFileSize is the accumulated payload size at which the writer
	// uploads the current file and starts a new one. Defaults to
	// DefaultTargetFileSize.
	TargetFileSize int64
	// Dataset names the dataset the column files belong to. Required when
	// the path factory is dataset-scoped.
	Dataset string
}

// Writer packs payloads into column files and uploads each file once the
// next payload would push it past the target size. Not safe for concurrent
// use.
type Writer struct {
	storage datastore.ObjectStorage
	dir     string
	target  int64

	fileID uuid.UUID
	buf    bytes.Buffer
	closed bool
}

// NewWriter creates a Writer uploading column files through the given
// object storage under the factory's column files path.
func NewWriter(storage datastore.ObjectStorage, paths *s3path.Factory, optFns ...func(*Options)) (*Writer, error) {
	if storage == nil {
		return nil, errors.New("object storage required")
	}
	if paths == nil {
		return nil, errors.New("path factory required")
	}

	opts := Options{TargetFileSize: DefaultTargetFileSize}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TargetFileSize <= 0 {
		opts.TargetFileSize = DefaultTargetFileSize
	}

	var pathOpts []func(*s3path.PathOptions)
	if opts.Dataset != "" {
		pathOpts = append(pathOpts, s3path.WithDatasetName(opts.Dataset))
	}
	dir, err := paths.ColumnConcatenatedBytesFilesPath(pathOpts...)
	if err != nil {
		return nil, err
	}

	return &Writer{
		storage: storage,
		dir:     dir,
		target:  opts.TargetFileSize,
		fileID:  uuid.New(),
	}, nil
}

// Append adds one payload to the current column file and returns its
// location. When the accumulated size would pass the target, the pending
// file is uploaded first and the payload opens a fresh one; a payload
// larger than the target gets a file of its own. Returned locations become
// readable once the file they point into has been uploaded.
func (w *Writer) Append(ctx context.Context, data []byte) (Location, error) {
	if w.closed {
		return Location{}, ErrWriterClosed
	}

	if w.buf.Len() > 0 && int64(w.buf.Len())+int64(len(data)) > w.target {
		if err := w.roll(ctx); err != nil {
			return Location{}, err
		}
	}

	loc := Location{
		FileID: w.fileID,
		Offset: int64(w.buf.Len()),
		Size:   int64(len(data)),
	}
	w.buf.Write(data)
	return loc, nil
}

// Flush uploads the pending column file even when it is below the target
// size. With nothing pending it is a no-op.
func (w *Writer) Flush(ctx context.Context) error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.buf.Len() == 0 {
		return nil
	}
	return w.roll(ctx)
}

// Close uploads any pending payloads and seals the writer. Closing twice is
// a no-op; a failed Close may be retried.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	if w.buf.Len() > 0 {
		if err := w.roll(ctx); err != nil {
			return err
		}
	}
	w.closed = true
	return nil
}

func (w *Writer) roll(ctx context.Context) error {
	addr := s3path.Join(w.dir, w.fileID.String())
	if err := w.storage.PutObject(ctx, w.buf.Bytes(), addr); err != nil {
		return fmt.Errorf("failed to upload column file %s: %w", w.fileID, err)
	}
	w.buf.Reset()
	w.fileID = uuid.New()
	return nil
}
