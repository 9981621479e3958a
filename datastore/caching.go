package datastore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stowage-io/stowage/s3path"
)

// CachingOptions configures a CachingStorage.
type CachingOptions struct {
	// Retries is the number of additional fetch attempts after a failure.
	Retries int

	// RetryDelay is the pause before the first retry.
	RetryDelay time.Duration

	// RetryBackoff multiplies the delay after each failed attempt.
	// Values below 1 are treated as 1 (fixed delay).
	RetryBackoff float64

	// Timeout bounds a single fetch attempt. Zero means unbounded.
	Timeout time.Duration

	// PrefetchConcurrency caps parallel fetches during Prefetch.
	PrefetchConcurrency int
}

// CachingStorage wraps a DataStorage with a read-through local cache.
//
// A fetch whose destination file already exists is served locally without
// touching the base storage. Cached copies mirror the destination layout the
// backends produce, so any earlier fetch into the same directory counts as a
// cache hit. Transient fetch failures are retried with a backed-off delay; a
// not-found does not retry.
type CachingStorage struct {
	base       DataStorage
	retries    int
	retryDelay time.Duration
	backoff    float64
	timeout    time.Duration
	prefetchN  int
}

var _ DataStorage = (*CachingStorage)(nil)

// NewCachingStorage wraps base with a read-through cache.
func NewCachingStorage(base DataStorage, optFns ...func(*CachingOptions)) *CachingStorage {
	opts := CachingOptions{
		Retries:             2,
		RetryDelay:          3 * time.Second,
		RetryBackoff:        2,
		PrefetchConcurrency: 16,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBackoff < 1 {
		opts.RetryBackoff = 1
	}
	if opts.PrefetchConcurrency < 1 {
		opts.PrefetchConcurrency = 1
	}
	return &CachingStorage{
		base:       base,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		backoff:    opts.RetryBackoff,
		timeout:    opts.Timeout,
		prefetchN:  opts.PrefetchConcurrency,
	}
}

// FetchFile returns the cached copy of the artifact when destDir already
// holds one, fetching it from the base storage otherwise.
func (c *CachingStorage) FetchFile(ctx context.Context, addr, destDir string) (string, error) {
	local := cachePath(addr, destDir)
	if fi, err := os.Stat(local); err == nil && !fi.IsDir() {
		return local, nil
	}

	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoff)
		}

		got, err := c.fetchOnce(ctx, addr, destDir)
		if err == nil {
			return got, nil
		}
		// A missing source does not heal with retries.
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("fetch %s failed after %d attempts: %w", addr, c.retries+1, lastErr)
}

func (c *CachingStorage) fetchOnce(ctx context.Context, addr, destDir string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.base.FetchFile(ctx, addr, destDir)
}

// Prefetch warms the cache for the given addresses. Fetches run in parallel
// with bounded concurrency; the first error cancels the remainder.
func (c *CachingStorage) Prefetch(ctx context.Context, addrs []string, destDir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.prefetchN)

	for _, addr := range addrs {
		g.Go(func() error {
			_, err := c.FetchFile(ctx, addr, destDir)
			return err
		})
	}
	return g.Wait()
}

// cachePath mirrors the backend destination layout: URL-form addresses keep
// their key structure under destDir, plain paths keep their base name.
func cachePath(addr, destDir string) string {
	if strings.HasPrefix(addr, s3path.Scheme) {
		if _, key, err := s3path.BucketKey(addr); err == nil && key != "" {
			return filepath.Join(destDir, filepath.FromSlash(key))
		}
	}
	return filepath.Join(destDir, filepath.Base(addr))
}
