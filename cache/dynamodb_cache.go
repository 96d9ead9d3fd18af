package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ammiranda/td/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI defines the interface for DynamoDB operations
type DynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// CacheItem is the DynamoDB row holding a snapshot. Data is the JSON
// encoding of the nodes; TTL is a unix timestamp.
type CacheItem struct {
	Key       string `dynamodbav:"key"`
	Data      string `dynamodbav:"data"`
	Timestamp int64  `dynamodbav:"timestamp"`
	TTL       int64  `dynamodbav:"ttl"`
}

// DynamoDBCache implements Provider using DynamoDB
type DynamoDBCache struct {
	client    DynamoDBAPI
	tableName string
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewDynamoDBCache creates a new DynamoDB cache provider
func NewDynamoDBCache(ctx context.Context, tableName string, logger *slog.Logger) (*DynamoDBCache, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewDynamoDBCacheWithClient(dynamodb.NewFromConfig(cfg), tableName, logger), nil
}

// NewDynamoDBCacheWithClient creates a new DynamoDB cache provider with a custom client
func NewDynamoDBCacheWithClient(client DynamoDBAPI, tableName string, logger *slog.Logger) *DynamoDBCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamoDBCache{
		client:    client,
		tableName: tableName,
		cacheTTL:  5 * time.Minute,
		logger:    logger,
	}
}

// Initialize creates the DynamoDB table if it doesn't exist
func (c *DynamoDBCache) Initialize(ctx context.Context) error {
	_, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}

	_, err = c.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("key"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("key"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	return err
}

func (c *DynamoDBCache) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: snapshotKey},
	}
}

// GetSnapshot retrieves the node snapshot if it has not expired
func (c *DynamoDBCache) GetSnapshot(ctx context.Context) ([]*models.Node, bool) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.key(),
	})
	if err != nil {
		c.logger.Warn("dynamodb cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if result.Item == nil {
		return nil, false
	}

	var item CacheItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		c.logger.Warn("dynamodb cache entry unreadable", slog.String("error", err.Error()))
		return nil, false
	}

	if time.Now().Unix() > item.TTL {
		if err := c.Invalidate(ctx); err != nil {
			c.logger.Warn("error deleting expired cache item", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var nodes []*models.Node
	if err := json.Unmarshal([]byte(item.Data), &nodes); err != nil {
		c.logger.Warn("dynamodb cache entry unreadable", slog.String("error", err.Error()))
		return nil, false
	}
	return nodes, true
}

// SetSnapshot stores the node snapshot in DynamoDB
func (c *DynamoDBCache) SetSnapshot(ctx context.Context, nodes []*models.Node) {
	data, err := json.Marshal(nodes)
	if err != nil {
		c.logger.Warn("dynamodb cache encode failed", slog.String("error", err.Error()))
		return
	}

	now := time.Now()
	av, err := attributevalue.MarshalMap(CacheItem{
		Key:       snapshotKey,
		Data:      string(data),
		Timestamp: now.Unix(),
		TTL:       now.Add(c.cacheTTL).Unix(),
	})
	if err != nil {
		c.logger.Warn("dynamodb cache encode failed", slog.String("error", err.Error()))
		return
	}

	if _, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      av,
	}); err != nil {
		// A stale entry must not outlive a failed write.
		c.logger.Warn("dynamodb cache write failed", slog.String("error", err.Error()))
		if err := c.Invalidate(ctx); err != nil {
			c.logger.Warn("error invalidating cache after put failure", slog.String("error", err.Error()))
		}
	}
}

// Invalidate removes the snapshot from DynamoDB
func (c *DynamoDBCache) Invalidate(ctx context.Context) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.key(),
	})
	return err
}

// SetTTL sets the cache time-to-live duration
func (c *DynamoDBCache) SetTTL(ttl time.Duration) {
	c.cacheTTL = ttl
}
