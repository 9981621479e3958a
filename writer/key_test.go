package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleKey_JSON(t *testing.T) {
	key := ExampleKey{Partition: "train", PrimaryKeyValues: []any{"scene-001", 3}}

	data, err := key.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"partition":"train","primary_key_values":["scene-001",3]}`, string(data))

	// Byte-for-byte stable across calls
	again, err := key.JSON()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestExampleKey_RoundTrip(t *testing.T) {
	key := ExampleKey{Partition: "eval", PrimaryKeyValues: []any{"scene-007"}}

	data, err := key.JSON()
	require.NoError(t, err)

	got, err := ParseExampleKey(data)
	require.NoError(t, err)
	assert.Equal(t, "eval", got.Partition)
	require.Len(t, got.PrimaryKeyValues, 1)
	assert.Equal(t, "scene-007", got.PrimaryKeyValues[0])
}

func TestExampleKey_Hash(t *testing.T) {
	key := ExampleKey{Partition: "train", PrimaryKeyValues: []any{"scene-001", 3}}

	hash, err := key.Hash()
	require.NoError(t, err)
	assert.Regexp(t, "^[0-9a-f]{64}$", hash)

	same, err := key.Hash()
	require.NoError(t, err)
	assert.Equal(t, hash, same)

	other, err := ExampleKey{Partition: "eval", PrimaryKeyValues: []any{"scene-001", 3}}.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)

	reordered, err := ExampleKey{Partition: "train", PrimaryKeyValues: []any{3, "scene-001"}}.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hash, reordered)
}

func TestExampleKey_HashUnencodableValue(t *testing.T) {
	_, err := ExampleKey{Partition: "train", PrimaryKeyValues: []any{make(chan int)}}.Hash()
	assert.Error(t, err)
}
