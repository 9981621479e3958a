// Package s3path implements the path algebra for dataset addresses.
//
// Addresses come in two forms: URL form ("s3://bucket/key...") and plain form
// (a bucket-relative key or filesystem path with no scheme). Everything here
// is pure string computation with no I/O, so the exact byte layout of derived
// paths can be unit tested in isolation.
package s3path

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme is the URL scheme prefix for object store addresses.
const Scheme = "s3://"

// Well-known segments under the dataset root.
//
// DANGER: changing these constants is a backward-incompatible change. All
// writers and readers of a dataset must agree on them.
const (
	ColumnConcatenatedFilesKey = "__COLUMN_CONCATENATED_FILES__"
	TemporaryRowFilesKey       = "__TEMPORARY_ROW_FILES__"
)

// ErrMissingScheme is returned when an address expected in URL form does not
// begin with the scheme prefix.
var ErrMissingScheme = errors.New("address missing scheme prefix")

// BucketKey decomposes a URL-form address into its bucket and key parts.
//
// The bucket is the segment between the scheme and the first separator; the
// key is the remainder verbatim, including any trailing separator. It may be
// empty. Recomposing Scheme + bucket + "/" + key reproduces the original
// address whenever the original contained a separator after the bucket.
func BucketKey(s3URI string) (bucket, key string, err error) {
	if !strings.HasPrefix(s3URI, Scheme) {
		return "", "", fmt.Errorf("%w: %q", ErrMissingScheme, s3URI)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(s3URI, Scheme), "/")
	return bucket, key, nil
}

// Join appends elements to base with exactly one separator at each seam.
//
// A trailing separator on base is collapsed into the seam, a leading
// separator on an element is dropped, and the double slash inside a scheme
// prefix is never touched. A trailing separator on the final element is
// preserved, since trailing separators on keys are semantically meaningful.
func Join(base string, elems ...string) string {
	out := base
	for _, elem := range elems {
		elem = strings.TrimLeft(elem, "/")
		if elem == "" {
			continue
		}
		switch {
		case out == "" || strings.HasSuffix(out, "://"):
			out += elem
		case strings.HasSuffix(out, "/"):
			out = strings.TrimRight(out, "/") + "/" + elem
		default:
			out += "/" + elem
		}
	}
	return out
}

// TrimScheme removes a leading scheme prefix, if present.
func TrimScheme(addr string) string {
	return strings.TrimPrefix(addr, Scheme)
}

// ReplacePrefix strips cutPrefix from the front of addr and joins the
// remainder onto replacement with exactly one separator.
//
// A cutPrefix that does not match the front of addr is a no-op: the full
// address is joined onto the replacement unchanged.
func ReplacePrefix(addr, cutPrefix, replacement string) string {
	rest := strings.TrimPrefix(addr, cutPrefix)
	return Join(replacement, strings.TrimLeft(rest, "/"))
}
