package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ammiranda/td/models"
)

// MemoryCache implements Provider using in-memory storage
type MemoryCache struct {
	mu     sync.RWMutex
	data   []*models.Node
	ttl    time.Duration
	expiry time.Time
}

// NewMemoryCache creates a new in-memory cache provider
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl: 5 * time.Minute,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MemoryCache) Initialize(ctx context.Context) error {
	return nil
}

// GetSnapshot returns a copy of the cached nodes if they have not expired
func (c *MemoryCache) GetSnapshot(ctx context.Context) ([]*models.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || time.Now().After(c.expiry) {
		return nil, false
	}
	return cloneNodes(c.data), true
}

// SetSnapshot stores a copy of nodes
func (c *MemoryCache) SetSnapshot(ctx context.Context, nodes []*models.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = cloneNodes(nodes)
	c.expiry = time.Now().Add(c.ttl)
}

// Invalidate removes all cached data
func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = nil
	c.expiry = time.Time{}
	return nil
}

// SetTTL sets the cache time-to-live duration and restarts the current entry's clock
func (c *MemoryCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	if c.data != nil {
		c.expiry = time.Now().Add(ttl)
	}
}

func cloneNodes(nodes []*models.Node) []*models.Node {
	out := make([]*models.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
