package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/stowage-io/stowage/codec"
)

// ExampleKey uniquely identifies one example within a dataset.
type ExampleKey struct {
	// Partition is the name of the partition (usually train/eval/test).
	Partition string `json:"partition"`
	// PrimaryKeyValues holds the example's primary key values, in order of
	// key precedence.
	PrimaryKeyValues []any `json:"primary_key_values"`
}

// JSON returns the canonical JSON form of the key.
//
// DANGER: staged row names derive from these bytes. Changing the field set
// or field order is a backward-incompatible change.
func (k ExampleKey) JSON() ([]byte, error) {
	return codec.GoJSON{}.Marshal(k)
}

// Hash returns the sha256 hex digest of the canonical JSON form. The digest
// uses only [0-9a-f] and is safe to use as an object name.
func (k ExampleKey) Hash() (string, error) {
	data, err := k.JSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode example key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ParseExampleKey decodes a key from its canonical JSON form.
func ParseExampleKey(data []byte) (ExampleKey, error) {
	var k ExampleKey
	if err := (codec.GoJSON{}).Unmarshal(data, &k); err != nil {
		return ExampleKey{}, fmt.Errorf("failed to decode example key: %w", err)
	}
	return k, nil
}
