// Package service implements the node operations on top of a repository:
// addressing, cascading moves, status toggles and tree assembly.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammiranda/td/cache"
	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/repository"
	"github.com/ammiranda/td/tree"
)

var (
	// ErrNotFound is returned when an address or ID resolves to no node
	ErrNotFound = repository.ErrNodeNotFound
	// ErrConflict is returned when a move or rename targets an occupied address
	ErrConflict = errors.New("address already occupied")
	// ErrStructuralViolation is returned when an operation would break the hierarchy
	ErrStructuralViolation = errors.New("structural violation")
)

// NodeService runs every mutation in one repository transaction and
// invalidates the snapshot cache after each commit.
type NodeService struct {
	repo   repository.Repository
	cache  cache.Provider
	logger *slog.Logger
	grace  time.Duration
	now    func() time.Time
}

type Option func(*NodeService)

// WithCache caches the node snapshot used by Tree and CriticalNodes.
func WithCache(p cache.Provider) Option {
	return func(s *NodeService) { s.cache = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *NodeService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCompletedGrace sets how long completed nodes stay in the tree.
func WithCompletedGrace(d time.Duration) Option {
	return func(s *NodeService) { s.grace = d }
}

// WithClock replaces time.Now for timestamps and the completed filter.
func WithClock(now func() time.Time) Option {
	return func(s *NodeService) { s.now = now }
}

func NewNodeService(repo repository.Repository, opts ...Option) *NodeService {
	s := &NodeService{
		repo:   repo,
		logger: slog.Default(),
		grace:  tree.DefaultCompletedGrace,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NodeService) timestamp() time.Time {
	return s.now().UTC()
}

// mutate runs fn in a transaction. target only labels the log lines.
func (s *NodeService) mutate(ctx context.Context, op, target string, fn func(repository.Store) error) error {
	start := time.Now()
	if err := s.repo.WithTx(ctx, fn); err != nil {
		s.logger.Warn("mutation rolled back",
			slog.String("op", op),
			slog.String("address", target),
			slog.String("error", err.Error()))
		return err
	}
	s.invalidate(ctx)
	s.logger.Debug("mutation committed",
		slog.String("op", op),
		slog.String("address", target),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (s *NodeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", slog.String("error", err.Error()))
	}
}

// find looks up addr in st, wrapping a miss with the address.
func find(ctx context.Context, st repository.Store, addr models.Address) (*models.Node, error) {
	n, err := st.FindByAddress(ctx, addr.Path, addr.Title)
	if errors.Is(err, repository.ErrNodeNotFound) {
		return nil, fmt.Errorf("node %q: %w", addr.String(), ErrNotFound)
	}
	return n, err
}

// storeErr maps repository uniqueness failures onto ErrConflict.
func storeErr(err error, addr string) error {
	if errors.Is(err, repository.ErrDuplicateNode) {
		return fmt.Errorf("%w: %q", ErrConflict, addr)
	}
	return err
}
