// Package datastore defines the storage facade shared by all dataset
// backends and provides the filesystem implementation.
//
// Upstream pipeline code addresses artifacts through paths produced by the
// s3path package and hands them to whichever backend is configured, without
// knowing whether bytes live on a mounted filesystem or in a remote object
// store.
package datastore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a stored object or file does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// DataStorage is the facade every backend satisfies.
//
// Implementations must be safe for concurrent use; they hold a single shared
// client handle and no per-call state.
type DataStorage interface {
	// FetchFile downloads the artifact identified by path into destDir and
	// returns the local path of the fetched copy. Intermediate directories
	// are created as needed. A missing source propagates as an error
	// satisfying errors.Is(err, ErrNotFound).
	FetchFile(ctx context.Context, path, destDir string) (string, error)
}

// ObjectStorage extends DataStorage with object store operations over
// URL-form addresses.
type ObjectStorage interface {
	DataStorage

	// CheckExists reports whether an object exists at the address. A
	// not-found condition from the store maps to (false, nil); any other
	// error propagates.
	CheckExists(ctx context.Context, addr string) (bool, error)

	// PutObject uploads raw bytes to the address.
	PutObject(ctx context.Context, data []byte, addr string) error

	// PutFile uploads the contents of the local file at localPath to the
	// address.
	PutFile(ctx context.Context, localPath, addr string) error
}
