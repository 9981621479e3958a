package rowindex

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu        sync.Mutex
	items     map[string]map[string]map[string]types.AttributeValue // hashKey -> rangeKey -> item
	pageLimit int                                                   // caps returned items per Query to force pagination
	queryErr  error
	queries   int
	lastQuery *dynamodb.QueryInput
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hashKey := params.Item["dataset_id"].(*types.AttributeValueMemberS).Value
	rangeKey := params.Item["example_id"].(*types.AttributeValueMemberS).Value

	if m.items[hashKey] == nil {
		m.items[hashKey] = make(map[string]map[string]types.AttributeValue)
	}
	m.items[hashKey][rangeKey] = params.Item

	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	m.lastQuery = params

	if m.queryErr != nil {
		return nil, m.queryErr
	}

	hashKey := params.ExpressionAttributeValues[":id"].(*types.AttributeValueMemberS).Value
	shard := m.items[hashKey]

	keys := make([]string, 0, len(shard))
	for k := range shard {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Resume strictly after the ExclusiveStartKey sort key
	if params.ExclusiveStartKey != nil {
		after := params.ExclusiveStartKey["example_id"].(*types.AttributeValueMemberS).Value
		for len(keys) > 0 && keys[0] <= after {
			keys = keys[1:]
		}
	}

	limit := len(keys)
	if params.Limit != nil && int(*params.Limit) < limit {
		limit = int(*params.Limit)
	}
	if m.pageLimit > 0 && m.pageLimit < limit {
		limit = m.pageLimit
	}

	out := &dynamodb.QueryOutput{}
	for _, k := range keys[:limit] {
		out.Items = append(out.Items, shard[k])
	}
	if limit > 0 && limit < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"dataset_id": &types.AttributeValueMemberS{Value: hashKey},
			"example_id": &types.AttributeValueMemberS{Value: keys[limit-1]},
		}
	}

	return out, nil
}

func exampleID(seed string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(seed)))
}

func TestIndex_SaveAndScanUnordered(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	idx := New(ddb, "stowage-row-index")

	var want []Entry
	for i := 0; i < 10; i++ {
		id := exampleID(fmt.Sprintf("scenes-%d", i))
		entry := Entry{
			DatasetID:   "scenes",
			ExampleID:   id,
			RowDataPath: "s3://test-bucket/datasets/__TEMPORARY_ROW_FILES__/scenes/" + id,
			RowSize:     int64(100 + i),
		}
		require.NoError(t, idx.Save(ctx, entry))
		want = append(want, entry)
	}

	// Entries of another dataset must not leak into the scan
	other := Entry{
		DatasetID:   "voices",
		ExampleID:   exampleID("voices-0"),
		RowDataPath: "s3://test-bucket/datasets/__TEMPORARY_ROW_FILES__/voices/x",
		RowSize:     7,
	}
	require.NoError(t, idx.Save(ctx, other))

	got, err := idx.ScanUnordered(ctx, "scenes")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
}

func TestIndex_ShardAssignment(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	idx := New(ddb, "stowage-row-index")

	tests := []struct {
		exampleID string
		shard     string
	}{
		{"00" + exampleID("a")[2:], "scenes_shard00"},
		{"4b" + exampleID("b")[2:], "scenes_shard11"},
		{"f0" + exampleID("c")[2:], "scenes_shard16"},
	}

	for _, tt := range tests {
		require.NoError(t, idx.Save(ctx, Entry{
			DatasetID: "scenes",
			ExampleID: tt.exampleID,
			RowSize:   1,
		}))
	}

	for _, tt := range tests {
		shard, ok := ddb.items[tt.shard]
		require.True(t, ok, "expected shard %s to exist", tt.shard)
		assert.Contains(t, shard, tt.exampleID)
	}
}

func TestIndex_ScanUnorderedPaginates(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	ddb.pageLimit = 2
	idx := New(ddb, "stowage-row-index")

	// All five share the first byte a0, so they land in one shard and force
	// three pages of 2+2+1.
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Save(ctx, Entry{
			DatasetID: "scenes",
			ExampleID: fmt.Sprintf("a0%d%s", i, exampleID("pad")[3:]),
			RowSize:   int64(i),
		}))
	}

	got, err := idx.ScanUnordered(ctx, "scenes")
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, NumShards+2, ddb.queries, "31 empty shards plus 3 pages")
}

func TestIndex_ScanUnorderedQueryShape(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	idx := New(ddb, "stowage-row-index")

	_, err := idx.ScanUnordered(ctx, "scenes")
	require.NoError(t, err)

	require.NotNil(t, ddb.lastQuery)
	assert.True(t, aws.ToBool(ddb.lastQuery.ConsistentRead))
	assert.Equal(t, int32(QueryPaginationLimit), aws.ToInt32(ddb.lastQuery.Limit))
	assert.Equal(t, "stowage-row-index", aws.ToString(ddb.lastQuery.TableName))
}

func TestIndex_ScanUnorderedEmpty(t *testing.T) {
	ctx := context.Background()
	idx := New(newMockDDBClient(), "stowage-row-index")

	got, err := idx.ScanUnordered(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_QueryErrorPropagates(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	ddb.queryErr = errors.New("throughput exceeded")
	idx := New(ddb, "stowage-row-index")

	_, err := idx.ScanUnordered(ctx, "scenes")
	require.Error(t, err)
	assert.ErrorContains(t, err, "scenes_shard00")
}

func TestIndex_WriteRateLimit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	idx := New(ddb, "stowage-row-index", func(o *Options) {
		o.WriteRate = rate.Every(time.Hour)
		o.WriteBurst = 1
	})

	// First save consumes the burst token.
	require.NoError(t, idx.Save(ctx, Entry{DatasetID: "scenes", ExampleID: exampleID("x"), RowSize: 1}))

	// Second save cannot acquire a token before the deadline.
	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := idx.Save(shortCtx, Entry{DatasetID: "scenes", ExampleID: exampleID("y"), RowSize: 1})
	assert.Error(t, err)
}
