package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDynamoDBClient implements DynamoDBAPI for testing
type mockDynamoDBClient struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newMockDynamoDBClient() *mockDynamoDBClient {
	return &mockDynamoDBClient{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[*params.TableName]; !ok {
		m.tables[*params.TableName] = make(map[string]map[string]types.AttributeValue)
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func (m *mockDynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.tables[*params.TableName]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: params.TableName}}, nil
}

func (m *mockDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := params.Key["key"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.tables[*params.TableName][key]}, nil
}

func (m *mockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.tables[*params.TableName]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	key := params.Item["key"].(*types.AttributeValueMemberS).Value
	table[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := params.Key["key"].(*types.AttributeValueMemberS).Value
	delete(m.tables[*params.TableName], key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func sampleSnapshot() []*models.Node {
	now := time.Now().UTC().Truncate(time.Second)
	root := models.NewNode(models.Address{Title: "work", Type: models.Sector}, nil, now)
	child := models.NewNode(models.Address{Title: "x", Path: "work", Type: models.Area}, &root.ID, now)
	return []*models.Node{root, child}
}

func testCacheProvider(t *testing.T, provider Provider) {
	ctx := context.Background()
	snapshot := sampleSnapshot()

	provider.SetSnapshot(ctx, snapshot)
	cached, found := provider.GetSnapshot(ctx)
	require.True(t, found)
	require.Len(t, cached, 2)
	assert.Equal(t, snapshot[0].ID, cached[0].ID)
	assert.Equal(t, snapshot[1].ParentID, cached[1].ParentID)
	assert.Equal(t, models.Area, cached[1].Type)
	assert.True(t, snapshot[1].CreatedAt.Equal(cached[1].CreatedAt))

	require.NoError(t, provider.Invalidate(ctx))
	_, found = provider.GetSnapshot(ctx)
	assert.False(t, found)

	provider.SetTTL(1 * time.Second)
	provider.SetSnapshot(ctx, snapshot)
	time.Sleep(2 * time.Second)
	_, found = provider.GetSnapshot(ctx)
	assert.False(t, found)
}

func TestDynamoDBCache(t *testing.T) {
	client := newMockDynamoDBClient()
	dynamoCache := NewDynamoDBCacheWithClient(client, "td-cache-test", nil)
	require.NoError(t, dynamoCache.Initialize(context.Background()))
	require.Contains(t, client.tables, "td-cache-test")

	// A second Initialize finds the table.
	require.NoError(t, dynamoCache.Initialize(context.Background()))

	testCacheProvider(t, dynamoCache)
}

func TestMemoryCache(t *testing.T) {
	memoryCache := NewMemoryCache()
	require.NoError(t, memoryCache.Initialize(context.Background()))

	testCacheProvider(t, memoryCache)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	memoryCache := NewMemoryCache()
	memoryCache.SetSnapshot(ctx, sampleSnapshot())

	first, _ := memoryCache.GetSnapshot(ctx)
	first[0].Title = "mutated"
	second, _ := memoryCache.GetSnapshot(ctx)
	assert.Equal(t, "work", second[0].Title)
}

func TestMockCache(t *testing.T) {
	mockCache := NewMockCache()
	require.NoError(t, mockCache.Initialize(context.Background()))

	testCacheProvider(t, mockCache)

	get, set, invalidate, setTTL, init := mockCache.GetCallCounts()
	assert.Greater(t, get, 0, "GetSnapshot should have been called")
	assert.Greater(t, set, 0, "SetSnapshot should have been called")
	assert.Greater(t, invalidate, 0, "Invalidate should have been called")
	assert.Greater(t, setTTL, 0, "SetTTL should have been called")
	assert.Equal(t, 1, init, "Initialize should have been called once")

	mockCache.Reset()
	mockCache.SetShouldFail(true)
	assert.Error(t, mockCache.Initialize(context.Background()), "Initialize should fail when ShouldFail is true")
	nodes, found := mockCache.GetSnapshot(context.Background())
	assert.Nil(t, nodes)
	assert.False(t, found)

	mockCache.Reset()
	get, set, invalidate, setTTL, init = mockCache.GetCallCounts()
	assert.Zero(t, get+set+invalidate+setTTL+init, "counters should be reset")
	assert.False(t, mockCache.ShouldFail, "ShouldFail should be reset")
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TD_TEST_REDIS_ADDR not set")
	}
	redisCache := NewRedisCache(RedisOptions{Addr: addr}, nil)
	defer redisCache.Close()
	require.NoError(t, redisCache.Initialize(context.Background()))

	testCacheProvider(t, redisCache)
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	cfg := config.Defaults()
	p, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg.CacheBackend = config.CacheMemory
	cfg.CacheTTL = time.Hour
	p, err = New(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, p)

	cfg.CacheBackend = "memcached"
	_, err = New(ctx, cfg, nil)
	assert.Error(t, err)
}
