// Package rowindex maintains a DynamoDB-backed index of staged dataset rows.
//
// Every example written by a dataset writer gets one index entry pointing at
// its staged row file in object storage. Hash keys are sharded per dataset to
// spread write throughput across DynamoDB partitions; scanning a dataset
// walks every shard with paginated queries.
package rowindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/time/rate"
)

// DANGER: If these constants are ever changed, this is a backward-incompatible
// change. Make sure that all writers and readers of the table are in sync
// when changing.
const (
	// NumShards is the number of hash-key shards per dataset.
	NumShards = 32
	// QueryPaginationLimit caps the page size of shard queries.
	QueryPaginationLimit = 1000
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// Entry is one indexed example row.
type Entry struct {
	// DatasetID is the dataset identifier (unsharded).
	DatasetID string
	// ExampleID is the sha256 hex digest of the example key, used as the
	// sort key within a shard.
	ExampleID string
	// RowDataPath is the address of the staged row file.
	RowDataPath string
	// RowSize is the serialized row size in bytes.
	RowSize int64
}

// Index is a sharded DynamoDB row index.
//
// Table schema:
//   - Partition key: dataset_id (string) - "<dataset>_shardNN"
//   - Sort key: example_id (string) - sha256 hex of the example key
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name stowage-row-index \
//	  --attribute-definitions AttributeName=dataset_id,AttributeType=S AttributeName=example_id,AttributeType=S \
//	  --key-schema AttributeName=dataset_id,KeyType=HASH AttributeName=example_id,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Index struct {
	client    DDBClient
	tableName string
	limiter   *rate.Limiter
}

// Options configures the index.
type Options struct {
	// WriteRate caps Save calls per second, for provisioned-throughput
	// tables. Zero means unlimited.
	WriteRate rate.Limit
	// WriteBurst is the burst size of the write limiter. Defaults to 1
	// when a rate is set.
	WriteBurst int
}

// New creates a row index on the given table.
func New(client DDBClient, tableName string, optFns ...func(*Options)) *Index {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	var limiter *rate.Limiter
	if opts.WriteRate > 0 {
		burst := opts.WriteBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.WriteRate, burst)
	}

	return &Index{
		client:    client,
		tableName: tableName,
		limiter:   limiter,
	}
}

// Save indexes one staged row under its dataset shard.
func (i *Index) Save(ctx context.Context, entry Entry) error {
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	_, err := i.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(i.tableName),
		Item: map[string]types.AttributeValue{
			"dataset_id":    &types.AttributeValueMemberS{Value: shardName(entry.DatasetID, shardID(entry.ExampleID))},
			"example_id":    &types.AttributeValueMemberS{Value: entry.ExampleID},
			"row_data_path": &types.AttributeValueMemberS{Value: entry.RowDataPath},
			"row_size":      &types.AttributeValueMemberN{Value: strconv.FormatInt(entry.RowSize, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to index row %s: %w", entry.ExampleID, err)
	}

	return nil
}

// ScanUnordered returns all entries for a dataset, in no particular order.
//
// Each shard is drained with consistent-read queries, following
// LastEvaluatedKey until the shard runs empty.
func (i *Index) ScanUnordered(ctx context.Context, datasetID string) ([]Entry, error) {
	var entries []Entry

	for shard := 0; shard < NumShards; shard++ {
		hashKey := shardName(datasetID, shard)

		var startKey map[string]types.AttributeValue
		for {
			resp, err := i.client.Query(ctx, &dynamodb.QueryInput{
				TableName:              aws.String(i.tableName),
				KeyConditionExpression: aws.String("dataset_id = :id"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":id": &types.AttributeValueMemberS{Value: hashKey},
				},
				ConsistentRead:    aws.Bool(true),
				Limit:             aws.Int32(QueryPaginationLimit),
				ExclusiveStartKey: startKey,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to query shard %s: %w", hashKey, err)
			}

			for _, item := range resp.Items {
				entry, err := entryFromItem(datasetID, item)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			}

			if resp.LastEvaluatedKey == nil {
				break
			}
			startKey = resp.LastEvaluatedKey
		}
	}

	return entries, nil
}

// shardID maps an example hash to its dataset shard. The first byte of the
// hash selects the shard.
func shardID(exampleID string) int {
	if len(exampleID) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(exampleID[:2], 16, 8)
	if err != nil {
		return 0
	}
	return int(v) % NumShards
}

func shardName(datasetID string, shard int) string {
	return fmt.Sprintf("%s_shard%02d", datasetID, shard)
}

func entryFromItem(datasetID string, item map[string]types.AttributeValue) (Entry, error) {
	exampleAttr, ok := item["example_id"].(*types.AttributeValueMemberS)
	if !ok {
		return Entry{}, errors.New("invalid example_id attribute in row index item")
	}
	pathAttr, ok := item["row_data_path"].(*types.AttributeValueMemberS)
	if !ok {
		return Entry{}, errors.New("invalid row_data_path attribute in row index item")
	}
	sizeAttr, ok := item["row_size"].(*types.AttributeValueMemberN)
	if !ok {
		return Entry{}, errors.New("invalid row_size attribute in row index item")
	}

	size, err := strconv.ParseInt(sizeAttr.Value, 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to parse row_size: %w", err)
	}

	return Entry{
		DatasetID:   datasetID,
		ExampleID:   exampleAttr.Value,
		RowDataPath: pathAttr.Value,
		RowSize:     size,
	}, nil
}
