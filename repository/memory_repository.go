package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/ammiranda/td/models"
	"github.com/google/uuid"
)

type addressKey struct {
	path, title string
}

// MemoryRepository implements Repository in process memory. It backs the
// "memory" driver and the engine tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	nodes  map[uuid.UUID]*models.Node
	byAddr map[addressKey]uuid.UUID
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nodes:  make(map[uuid.UUID]*models.Node),
		byAddr: make(map[addressKey]uuid.UUID),
	}
}

// Initialize performs any necessary setup
func (m *MemoryRepository) Initialize(ctx context.Context) error {
	return nil
}

// Cleanup drops every stored node
func (m *MemoryRepository) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[uuid.UUID]*models.Node)
	m.byAddr = make(map[addressKey]uuid.UUID)
	return nil
}

// WithTx snapshots the store, runs fn, and restores the snapshot if fn
// fails. Transactions are serialized.
func (m *MemoryRepository) WithTx(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	nodes := make(map[uuid.UUID]*models.Node, len(m.nodes))
	for id, n := range m.nodes {
		nodes[id] = n.Clone()
	}
	byAddr := make(map[addressKey]uuid.UUID, len(m.byAddr))
	for k, id := range m.byAddr {
		byAddr[k] = id
	}
	m.mu.RUnlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.nodes, m.byAddr = nodes, byAddr
		m.mu.Unlock()
		return err
	}
	return nil
}

// CreateNode stores a copy of node
func (m *MemoryRepository) CreateNode(ctx context.Context, node *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := addressKey{node.Path, node.Title}
	if _, taken := m.byAddr[key]; taken {
		return ErrDuplicateNode
	}
	if _, taken := m.nodes[node.ID]; taken {
		return ErrDuplicateNode
	}
	m.nodes[node.ID] = node.Clone()
	m.byAddr[key] = node.ID
	return nil
}

// GetNode retrieves a node by ID
func (m *MemoryRepository) GetNode(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node.Clone(), nil
}

// FindByAddress retrieves a node by (path, title)
func (m *MemoryRepository) FindByAddress(ctx context.Context, path, title string) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byAddr[addressKey{path, title}]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return m.nodes[id].Clone(), nil
}

// ListChildren retrieves the direct children of parentID, or the roots
func (m *MemoryRepository) ListChildren(ctx context.Context, parentID *uuid.UUID) ([]*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*models.Node{}
	for _, n := range m.nodes {
		switch {
		case parentID == nil && n.ParentID == nil,
			parentID != nil && n.ParentID != nil && *n.ParentID == *parentID:
			result = append(result, n.Clone())
		}
	}
	sortSiblings(result)
	return result, nil
}

// ListNodes retrieves all nodes
func (m *MemoryRepository) ListNodes(ctx context.Context) ([]*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		result = append(result, n.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return siblingLess(a, b)
	})
	return result, nil
}

// UpdateNode replaces the stored copy of node
func (m *MemoryRepository) UpdateNode(ctx context.Context, node *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.nodes[node.ID]
	if !ok {
		return ErrNodeNotFound
	}
	oldKey := addressKey{current.Path, current.Title}
	newKey := addressKey{node.Path, node.Title}
	if id, taken := m.byAddr[newKey]; taken && id != node.ID {
		return ErrDuplicateNode
	}
	delete(m.byAddr, oldKey)
	m.byAddr[newKey] = node.ID
	m.nodes[node.ID] = node.Clone()
	return nil
}

// DeleteNode deletes a single node
func (m *MemoryRepository) DeleteNode(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	delete(m.byAddr, addressKey{node.Path, node.Title})
	delete(m.nodes, id)
	return nil
}

// DeleteAll removes every node
func (m *MemoryRepository) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.nodes))
	m.nodes = make(map[uuid.UUID]*models.Node)
	m.byAddr = make(map[addressKey]uuid.UUID)
	return n, nil
}

// siblingLess mirrors the SQL ordering: explicit order first, then
// creation time, then title.
func siblingLess(a, b *models.Node) bool {
	switch {
	case a.Order != nil && b.Order == nil:
		return true
	case a.Order == nil && b.Order != nil:
		return false
	case a.Order != nil && *a.Order != *b.Order:
		return *a.Order < *b.Order
	case !a.CreatedAt.Equal(b.CreatedAt):
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Title < b.Title
}

func sortSiblings(nodes []*models.Node) {
	sort.Slice(nodes, func(i, j int) bool { return siblingLess(nodes[i], nodes[j]) })
}
