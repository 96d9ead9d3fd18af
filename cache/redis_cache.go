package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ammiranda/td/models"
	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the Redis server and database.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache implements Provider using Redis. The snapshot is stored as a
// JSON array under one key with a Redis-side expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache creates a new Redis cache provider
func NewRedisCache(opts RedisOptions, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisCache{
		client: client,
		ttl:    5 * time.Minute,
		logger: logger,
	}
}

// Initialize checks that the server is reachable
func (c *RedisCache) Initialize(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetSnapshot retrieves the node snapshot from Redis
func (c *RedisCache) GetSnapshot(ctx context.Context) ([]*models.Node, bool) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var nodes []*models.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		c.logger.Warn("redis cache entry unreadable", slog.String("error", err.Error()))
		return nil, false
	}
	return nodes, true
}

// SetSnapshot stores the node snapshot in Redis
func (c *RedisCache) SetSnapshot(ctx context.Context, nodes []*models.Node) {
	data, err := json.Marshal(nodes)
	if err != nil {
		c.logger.Warn("redis cache encode failed", slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache write failed", slog.String("error", err.Error()))
	}
}

// Invalidate removes the snapshot from Redis
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, snapshotKey).Err()
}

// SetTTL sets the cache time-to-live duration
func (c *RedisCache) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
