package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/models"
	"github.com/google/uuid"
)

// Store defines the node operations available both on a repository and
// inside one of its transactions.
type Store interface {
	// CreateNode persists a new node. It returns ErrDuplicateNode when a
	// node already occupies the same (path, title).
	CreateNode(ctx context.Context, node *models.Node) error

	// GetNode retrieves a node by its ID.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	GetNode(ctx context.Context, id uuid.UUID) (*models.Node, error)

	// FindByAddress retrieves the node stored at (path, title).
	// Returns ErrNodeNotFound if the address is free.
	FindByAddress(ctx context.Context, path, title string) (*models.Node, error)

	// ListChildren returns the direct children of parentID, or the root
	// nodes when parentID is nil, in sibling order.
	ListChildren(ctx context.Context, parentID *uuid.UUID) ([]*models.Node, error)

	// ListNodes returns every node in the store.
	ListNodes(ctx context.Context) ([]*models.Node, error)

	// UpdateNode overwrites the stored row with node's fields.
	// Returns ErrNodeNotFound if no node exists with node.ID and
	// ErrDuplicateNode if the new (path, title) is taken.
	UpdateNode(ctx context.Context, node *models.Node) error

	// DeleteNode deletes a single node.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	DeleteNode(ctx context.Context, id uuid.UUID) error

	// DeleteAll removes every node and reports how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)
}

// Repository defines the interface for data access operations.
// It provides methods for managing tree nodes in a persistent storage.
type Repository interface {
	Store

	// Initialize performs any necessary setup for the repository.
	// This may include establishing database connections or running
	// migrations. Returns an error if initialization fails.
	Initialize(ctx context.Context) error

	// Cleanup releases whatever Initialize acquired.
	Cleanup(ctx context.Context) error

	// WithTx runs fn against a transactional Store. The transaction is
	// committed when fn returns nil and rolled back otherwise; the error
	// from fn is returned unchanged.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Common errors
var (
	// ErrNodeNotFound is returned when a requested node does not exist
	ErrNodeNotFound = errors.New("node not found")
	// ErrDuplicateNode is returned when a write would break (path, title) uniqueness
	ErrDuplicateNode = errors.New("node already exists at this address")
)

// New builds the repository selected by cfg.DBDriver. The result still
// needs Initialize.
func New(cfg *config.AppConfig, provider config.Provider) (Repository, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return NewSQLiteRepository(cfg.SQLitePath), nil
	case config.DriverPostgres:
		return NewPostgresRepository(provider)
	case config.DriverMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}
