// Package writer stages dataset examples into object storage.
//
// Examples are buffered in memory and written out asynchronously: each row is
// serialized, optionally compressed, staged under the dataset's temporary row
// files path, and recorded in the row index when one is configured. The
// number of writes in flight is bounded so a fast producer cannot queue
// unbounded work.
package writer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stowage-io/stowage/codec"
	"github.com/stowage-io/stowage/datastore"
	"github.com/stowage-io/stowage/rowindex"
	"github.com/stowage-io/stowage/s3path"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultBufferSize is the number of examples buffered in memory before
	// an asynchronous flush is triggered.
	DefaultBufferSize = 1000

	// DefaultFlushTimeout bounds how long a blocking flush waits for writes
	// in flight to drain.
	DefaultFlushTimeout = 10 * time.Second
)

// ErrMissingPrimaryKey is returned when a row lacks a value for one of the
// dataset's primary key fields.
var ErrMissingPrimaryKey = errors.New("row missing primary key value")

// Dataset identifies a dataset and the row fields forming its example keys.
type Dataset struct {
	// ID is the dataset identifier, used in staged row paths and index
	// entries.
	ID string
	// PrimaryKeys names the row fields whose values identify an example,
	// in order of key precedence.
	PrimaryKeys []string
}

// DatasetWriter writes examples into a dataset.
type DatasetWriter interface {
	// AddExample buffers one example for the named partition.
	AddExample(ctx context.Context, partition string, row map[string]any) error
	// Flush writes out all buffered examples and blocks until no writes
	// remain in flight.
	Flush(ctx context.Context) error
	// Commit finalizes the writer, flushing everything still buffered.
	Commit(ctx context.Context) error
}

// RowIndex records index entries for staged rows.
type RowIndex interface {
	Save(ctx context.Context, entry rowindex.Entry) error
}

// Options configures an AsyncWriter.
type Options struct {
	// BufferSize is the number of buffered examples that triggers an
	// asynchronous flush. Defaults to DefaultBufferSize.
	BufferSize int
	// FlushTimeout bounds blocking flushes. Defaults to
	// DefaultFlushTimeout.
	FlushTimeout time.Duration
	// Codec serializes row payloads. Defaults to codec.Default.
	Codec codec.Codec
	// Compressor compresses serialized payloads. Defaults to codec.Nop.
	Compressor codec.Compressor
	// Index records an entry per staged row. Optional.
	Index RowIndex
	// OnFlush is invoked after each blocking flush with the number of rows
	// drained since the previous one and the flush outcome. Optional.
	OnFlush func(count int, d time.Duration, err error)
}

// AsyncWriter buffers examples and stages them asynchronously.
type AsyncWriter struct {
	dataset    Dataset
	storage    datastore.ObjectStorage
	paths      *s3path.Factory
	index      RowIndex
	codec      codec.Codec
	compressor codec.Compressor

	bufferSize   int
	flushTimeout time.Duration
	onFlush      func(count int, d time.Duration, err error)

	// inFlight bounds submitted-but-unfinished writes at 2x the buffer
	// size. Draining acquires the full capacity.
	inFlight *semaphore.Weighted
	capacity int64

	mu         sync.Mutex
	buffer     []example
	flushCount int // rows accepted since the last blocking flush

	errMu   sync.Mutex
	saveErr error // first asynchronous save error
}

var _ DatasetWriter = (*AsyncWriter)(nil)

type example struct {
	key  ExampleKey
	hash string
	row  map[string]any
}

// New creates an AsyncWriter staging rows through the given object storage
// under the factory's temporary row files path.
func New(dataset Dataset, storage datastore.ObjectStorage, paths *s3path.Factory, optFns ...func(*Options)) (*AsyncWriter, error) {
	if dataset.ID == "" {
		return nil, errors.New("dataset ID required")
	}
	if len(dataset.PrimaryKeys) == 0 {
		return nil, errors.New("dataset requires at least one primary key")
	}
	if storage == nil {
		return nil, errors.New("object storage required")
	}
	if paths == nil {
		return nil, errors.New("path factory required")
	}

	opts := Options{
		BufferSize:   DefaultBufferSize,
		FlushTimeout: DefaultFlushTimeout,
		Codec:        codec.Default,
		Compressor:   codec.Nop{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.BufferSize < 1 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = DefaultFlushTimeout
	}

	capacity := int64(2 * opts.BufferSize)

	return &AsyncWriter{
		dataset:      dataset,
		storage:      storage,
		paths:        paths,
		index:        opts.Index,
		codec:        opts.Codec,
		compressor:   opts.Compressor,
		bufferSize:   opts.BufferSize,
		flushTimeout: opts.FlushTimeout,
		onFlush:      opts.OnFlush,
		inFlight:     semaphore.NewWeighted(capacity),
		capacity:     capacity,
	}, nil
}

// AddExample buffers one example. When the buffer exceeds its size limit, a
// non-blocking flush is triggered; submission may still block briefly when
// the writes-in-flight bound is reached.
func (w *AsyncWriter) AddExample(ctx context.Context, partition string, row map[string]any) error {
	keyValues := make([]any, 0, len(w.dataset.PrimaryKeys))
	for _, name := range w.dataset.PrimaryKeys {
		v, ok := row[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingPrimaryKey, name)
		}
		keyValues = append(keyValues, v)
	}

	key := ExampleKey{Partition: partition, PrimaryKeyValues: keyValues}
	hash, err := key.Hash()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.buffer = append(w.buffer, example{key: key, hash: hash, row: row})
	w.flushCount++
	var batch []example
	if len(w.buffer) > w.bufferSize {
		batch = w.buffer
		w.buffer = nil
	}
	w.mu.Unlock()

	if batch == nil {
		return nil
	}
	return w.saveBatch(ctx, batch)
}

// Flush writes out all buffered examples and blocks until no writes remain
// in flight. The first error recorded by an asynchronous save is returned.
func (w *AsyncWriter) Flush(ctx context.Context) error {
	start := time.Now()

	w.mu.Lock()
	batch := w.buffer
	w.buffer = nil
	count := w.flushCount
	w.flushCount = 0
	w.mu.Unlock()

	err := w.saveBatch(ctx, batch)
	if err == nil {
		err = w.drain(ctx)
	}

	if w.onFlush != nil {
		w.onFlush(count, time.Since(start), err)
	}
	return err
}

// Commit finalizes the writer with a blocking flush. The staged rows and
// their index entries are the writer's output; downstream jobs pick them up
// from there.
func (w *AsyncWriter) Commit(ctx context.Context) error {
	return w.Flush(ctx)
}

func (w *AsyncWriter) saveBatch(ctx context.Context, batch []example) error {
	for _, ex := range batch {
		acquireCtx, cancel := context.WithTimeout(ctx, w.flushTimeout)
		err := w.inFlight.Acquire(acquireCtx, 1)
		cancel()
		if err != nil {
			return fmt.Errorf("timed out while queueing dataset writes: %w", err)
		}

		// Saves outlive the submitting call; cancellation of the
		// caller's context must not abort staged writes mid-flight.
		saveCtx := context.WithoutCancel(ctx)
		go func() {
			defer w.inFlight.Release(1)
			if err := w.saveRow(saveCtx, ex); err != nil {
				w.recordErr(err)
			}
		}()
	}
	return nil
}

func (w *AsyncWriter) saveRow(ctx context.Context, ex example) error {
	data, err := w.codec.Marshal(ex.row)
	if err != nil {
		return fmt.Errorf("failed to encode row %s: %w", ex.hash, err)
	}
	data, err = w.compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress row %s: %w", ex.hash, err)
	}

	addr := s3path.Join(w.paths.TemporaryRowFilesPath(w.dataset.ID), ex.hash)
	if err := w.storage.PutObject(ctx, data, addr); err != nil {
		return fmt.Errorf("failed to stage row %s: %w", ex.hash, err)
	}

	if w.index != nil {
		entry := rowindex.Entry{
			DatasetID:   w.dataset.ID,
			ExampleID:   ex.hash,
			RowDataPath: addr,
			RowSize:     int64(len(data)),
		}
		if err := w.index.Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to index row %s: %w", ex.hash, err)
		}
	}

	return nil
}

// drain blocks until no writes are in flight, bounded by the flush timeout.
func (w *AsyncWriter) drain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.flushTimeout)
	defer cancel()

	if err := w.inFlight.Acquire(ctx, w.capacity); err != nil {
		return fmt.Errorf("timed out while flushing dataset writes: %w", err)
	}
	w.inFlight.Release(w.capacity)

	return w.firstErr()
}

func (w *AsyncWriter) recordErr(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()

	if w.saveErr == nil {
		w.saveErr = err
	}
}

func (w *AsyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()

	return w.saveErr
}
