package stowage

import (
	"errors"
	"fmt"

	"github.com/stowage-io/stowage/datastore"
)

var (
	// ErrNotFound is returned when a stored object or file does not exist.
	// It aliases datastore.ErrNotFound so facade callers never import the
	// backend packages for error checks.
	ErrNotFound = datastore.ErrNotFound

	// ErrDatasetsRootRequired is returned by Open when the configuration
	// names no datasets root path.
	ErrDatasetsRootRequired = errors.New("datasets root path required")

	// ErrObjectStorageRequired is returned when an object store operation
	// is invoked on a backend that only supports file fetches.
	ErrObjectStorageRequired = errors.New("backend does not support object operations")

	// ErrEndpointRequired is returned when the minio backend is selected
	// without a configured endpoint.
	ErrEndpointRequired = errors.New("minio backend requires an s3 endpoint")
)

// ErrUnknownBackend indicates an unrecognized backend name in the
// configuration.
type ErrUnknownBackend struct {
	Backend string
}

func (e *ErrUnknownBackend) Error() string {
	return fmt.Sprintf("unknown storage backend: %q", e.Backend)
}
