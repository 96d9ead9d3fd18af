package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/models"
)

// snapshotKey is the single key every backend stores the node snapshot under.
const snapshotKey = "td:nodes"

// Provider defines the interface for cache implementations. It caches the
// flat node snapshot that tree assembly reads; any mutation invalidates it.
type Provider interface {
	// Initialize performs any necessary setup for the cache provider, such
	// as checking connectivity or creating tables.
	Initialize(ctx context.Context) error

	// GetSnapshot returns the cached nodes and whether they were found.
	// Expired or unreadable entries count as a miss.
	GetSnapshot(ctx context.Context) ([]*models.Node, bool)

	// SetSnapshot stores nodes for the configured TTL.
	SetSnapshot(ctx context.Context, nodes []*models.Node)

	// Invalidate removes the cached snapshot.
	Invalidate(ctx context.Context) error

	// SetTTL sets how long a stored snapshot stays valid.
	SetTTL(ttl time.Duration)
}

// New builds the provider selected by cfg.CacheBackend and initializes it.
// It returns nil when caching is disabled.
func New(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (Provider, error) {
	var p Provider
	switch cfg.CacheBackend {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		p = NewMemoryCache()
	case config.CacheRedis:
		p = NewRedisCache(RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, logger)
	case config.CacheDynamoDB:
		d, err := NewDynamoDBCache(ctx, cfg.DynamoDBTable, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create DynamoDB cache: %w", err)
		}
		p = d
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.CacheBackend)
	}

	p.SetTTL(cfg.CacheTTL)
	if err := p.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s cache: %w", cfg.CacheBackend, err)
	}
	return p, nil
}
