package s3path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketKey(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		bucket string
		key    string
	}{
		{name: "BucketAndKey", uri: "s3://hello/world", bucket: "hello", key: "world"},
		{name: "EmptyKey", uri: "s3://hello/", bucket: "hello", key: ""},
		{name: "SchemeOnly", uri: "s3://", bucket: "", key: ""},
		{name: "TrailingSeparator", uri: "s3://hello/world/", bucket: "hello", key: "world/"},
		{name: "NestedKey", uri: "s3://hello/a/b/c", bucket: "hello", key: "a/b/c"},
		{name: "BucketWithoutSeparator", uri: "s3://hello", bucket: "hello", key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := BucketKey(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}

	t.Run("MissingScheme", func(t *testing.T) {
		_, _, err := BucketKey("hello/world")
		assert.ErrorIs(t, err, ErrMissingScheme)
	})
}

func TestBucketKey_RoundTrip(t *testing.T) {
	// Decomposing and recomposing must reproduce the original byte for byte
	// for every address that contains a separator after the bucket.
	uris := []string{
		"s3://hello/world",
		"s3://hello/world/",
		"s3://hello/",
		"s3://hello/a/b/c/",
	}

	for _, uri := range uris {
		bucket, key, err := BucketKey(uri)
		require.NoError(t, err)
		assert.Equal(t, uri, Scheme+bucket+"/"+key, "uri: %s", uri)
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		elems []string
		want  string
	}{
		{name: "Simple", base: "a", elems: []string{"b"}, want: "a/b"},
		{name: "TrailingSlashOnBase", base: "/m/", elems: []string{"x"}, want: "/m/x"},
		{name: "NoSlashOnBase", base: "/m", elems: []string{"x"}, want: "/m/x"},
		{name: "LeadingSlashOnElem", base: "a", elems: []string{"/b"}, want: "a/b"},
		{name: "SchemePreserved", base: "s3://bucket", elems: []string{"k"}, want: "s3://bucket/k"},
		{name: "SchemeAndTrailingSlash", base: "s3://bucket/", elems: []string{"k"}, want: "s3://bucket/k"},
		{name: "SchemeOnlyBase", base: "s3://", elems: []string{"bucket", "k"}, want: "s3://bucket/k"},
		{name: "TrailingSlashOnFinalElem", base: "a", elems: []string{"b/"}, want: "a/b/"},
		{name: "EmptyElemsSkipped", base: "a", elems: []string{"", "b"}, want: "a/b"},
		{name: "MultipleElems", base: "s3://b/root", elems: []string{"ds", "file"}, want: "s3://b/root/ds/file"},
		{name: "NoElems", base: "s3://b/root", want: "s3://b/root"},
		{name: "EmptyBase", base: "", elems: []string{"b", "k"}, want: "b/k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.base, tt.elems...))
		})
	}
}

func TestTrimScheme(t *testing.T) {
	assert.Equal(t, "bucket/key", TrimScheme("s3://bucket/key"))
	assert.Equal(t, "bucket/key", TrimScheme("bucket/key"))
	assert.Equal(t, "", TrimScheme("s3://"))
}

func TestReplacePrefix(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		cutPrefix   string
		replacement string
		want        string
	}{
		{
			name:        "StripScheme",
			addr:        "s3://bucket/key",
			cutPrefix:   "s3://",
			replacement: "/mnt",
			want:        "/mnt/bucket/key",
		},
		{
			name:        "StripSchemeAndBucket",
			addr:        "s3://bucket/key",
			cutPrefix:   "s3://bucket/",
			replacement: "/mnt/",
			want:        "/mnt/key",
		},
		{
			name:        "CutWithoutTrailingSlash",
			addr:        "s3://bucket/key",
			cutPrefix:   "s3://bucket",
			replacement: "/mnt",
			want:        "/mnt/key",
		},
		{
			// A cut prefix that does not match strips nothing; the address
			// is joined onto the replacement as is.
			name:        "NonMatchingCutPrefix",
			addr:        "s3://bucket/key",
			cutPrefix:   "s3://other/",
			replacement: "/mnt",
			want:        "/mnt/s3://bucket/key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplacePrefix(tt.addr, tt.cutPrefix, tt.replacement))
		})
	}
}
