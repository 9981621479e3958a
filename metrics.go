package stowage

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    fetchCounter   prometheus.Counter
//	    fetchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordFetch(bytes int64, duration time.Duration, err error) {
//	    p.fetchCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordFetch is called after each fetch operation (file or object).
	// bytes is the payload size when known, duration is the total time taken,
	// err is nil if successful.
	RecordFetch(bytes int64, duration time.Duration, err error)

	// RecordPut is called after each put operation (file or object).
	// bytes is the payload size when known, duration is the total time taken,
	// err is nil if successful.
	RecordPut(bytes int64, duration time.Duration, err error)

	// RecordCheckExists is called after each existence check.
	RecordCheckExists(duration time.Duration, err error)

	// RecordWriterFlush is called after each dataset writer flush.
	// count is the number of rows attempted, duration is the total time taken.
	RecordWriterFlush(count int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFetch(int64, time.Duration, error)     {}
func (NoopMetricsCollector) RecordPut(int64, time.Duration, error)       {}
func (NoopMetricsCollector) RecordCheckExists(time.Duration, error)      {}
func (NoopMetricsCollector) RecordWriterFlush(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FetchCount      atomic.Int64
	FetchErrors     atomic.Int64
	FetchBytes      atomic.Int64
	FetchTotalNanos atomic.Int64
	PutCount        atomic.Int64
	PutErrors       atomic.Int64
	PutBytes        atomic.Int64
	PutTotalNanos   atomic.Int64
	CheckCount      atomic.Int64
	CheckErrors     atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushRows       atomic.Int64
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(bytes int64, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	} else {
		b.FetchBytes.Add(bytes)
	}
}

// RecordPut implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPut(bytes int64, duration time.Duration, err error) {
	b.PutCount.Add(1)
	b.PutTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PutErrors.Add(1)
	} else {
		b.PutBytes.Add(bytes)
	}
}

// RecordCheckExists implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckExists(duration time.Duration, err error) {
	b.CheckCount.Add(1)
	if err != nil {
		b.CheckErrors.Add(1)
	}
}

// RecordWriterFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWriterFlush(count int, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushRows.Add(int64(count))
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FetchCount:    b.FetchCount.Load(),
		FetchErrors:   b.FetchErrors.Load(),
		FetchBytes:    b.FetchBytes.Load(),
		FetchAvgNanos: b.getAvgFetchNanos(),
		PutCount:      b.PutCount.Load(),
		PutErrors:     b.PutErrors.Load(),
		PutBytes:      b.PutBytes.Load(),
		PutAvgNanos:   b.getAvgPutNanos(),
		CheckCount:    b.CheckCount.Load(),
		CheckErrors:   b.CheckErrors.Load(),
		FlushCount:    b.FlushCount.Load(),
		FlushErrors:   b.FlushErrors.Load(),
		FlushRows:     b.FlushRows.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFetchNanos() int64 {
	count := b.FetchCount.Load()
	if count == 0 {
		return 0
	}
	return b.FetchTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgPutNanos() int64 {
	count := b.PutCount.Load()
	if count == 0 {
		return 0
	}
	return b.PutTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FetchCount    int64
	FetchErrors   int64
	FetchBytes    int64
	FetchAvgNanos int64
	PutCount      int64
	PutErrors     int64
	PutBytes      int64
	PutAvgNanos   int64
	CheckCount    int64
	CheckErrors   int64
	FlushCount    int64
	FlushErrors   int64
	FlushRows     int64
}
