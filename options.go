package stowage

import (
	"log/slog"

	"github.com/stowage-io/stowage/codec"
	"github.com/stowage-io/stowage/datastore"
	"github.com/stowage-io/stowage/writer"
)

type options struct {
	storage          datastore.DataStorage
	codec            codec.Codec
	compressor       codec.Compressor
	rowIndex         writer.RowIndex
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Stowage constructor behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
//
// Breaking changes are expected while Stowage is pre-release.
type Option func(*options)

// WithStorage injects a pre-built storage backend, bypassing the backend
// selection in the configuration. The datasets root path and path factory
// settings from the configuration still apply.
//
// This is how tests and embedders swap in datastore.NewMemoryDataStorage
// or a custom implementation.
func WithStorage(storage datastore.DataStorage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithCodec configures the codec used for encoding staged row payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompressor configures compression for staged row payloads.
//
// If nil is passed, rows are stored uncompressed.
func WithCompressor(c codec.Compressor) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Nop{}
		}
		o.compressor = c
	}
}

// WithRowIndex configures the row index that dataset writers publish
// entries to. Pass nil to disable indexing.
//
// Example with the DynamoDB-backed index:
//
//	ddb := dynamodb.NewFromConfig(awsCfg)
//	idx := rowindex.New(ddb, "stowage-row-index")
//	st, _ := stowage.Open(ctx, cfg, stowage.WithRowIndex(idx))
func WithRowIndex(index writer.RowIndex) Option {
	return func(o *options) {
		o.rowIndex = index
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &stowage.BasicMetricsCollector{}
//	st, _ := stowage.Open(ctx, cfg, stowage.WithMetricsCollector(metrics))
//	// ... use st ...
//	stats := metrics.GetStats()
//	fmt.Printf("Fetches: %d, Avg latency: %dns\n", stats.FetchCount, stats.FetchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := stowage.NewJSONLogger(slog.LevelInfo)
//	st, _ := stowage.Open(ctx, cfg, stowage.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compressor:       codec.Nop{},
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
