package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/repository"
	"github.com/ammiranda/td/tree"
	"github.com/google/uuid"
)

// Read returns the node at req's address.
func (s *NodeService) Read(ctx context.Context, req models.NodeRead) (*models.Node, error) {
	addr, err := req.Address()
	if err != nil {
		return nil, err
	}
	return find(ctx, s.repo, addr)
}

// Get returns the node with the given ID.
func (s *NodeService) Get(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	n, err := s.repo.GetNode(ctx, id)
	if errors.Is(err, repository.ErrNodeNotFound) {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return n, err
}

// Lineage returns the node at req followed by each of its ancestors up to
// the root.
func (s *NodeService) Lineage(ctx context.Context, req models.NodeRead) ([]*models.Node, error) {
	n, err := s.Read(ctx, req)
	if err != nil {
		return nil, err
	}

	chain := []*models.Node{n}
	seen := map[uuid.UUID]bool{n.ID: true}
	for n.ParentID != nil {
		id := *n.ParentID
		if seen[id] {
			return nil, fmt.Errorf("%w at %s", tree.ErrCycle, id)
		}
		parent, err := s.repo.GetNode(ctx, id)
		if errors.Is(err, repository.ErrNodeNotFound) {
			return nil, fmt.Errorf("%w: %s", tree.ErrDanglingParent, id)
		}
		if err != nil {
			return nil, err
		}
		seen[id] = true
		chain = append(chain, parent)
		n = parent
	}
	return chain, nil
}

// Snapshot returns every node, reading through the cache when one is set.
func (s *NodeService) Snapshot(ctx context.Context) ([]*models.Node, error) {
	if s.cache != nil {
		if nodes, ok := s.cache.GetSnapshot(ctx); ok {
			s.logger.Debug("snapshot served from cache", slog.Int("nodes", len(nodes)))
			return nodes, nil
		}
	}

	nodes, err := s.repo.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing nodes: %w", err)
	}
	if s.cache != nil {
		s.cache.SetSnapshot(ctx, nodes)
	}
	return nodes, nil
}

func (s *NodeService) treeOptions() tree.Options {
	return tree.Options{Now: s.now(), CompletedGrace: s.grace}
}

// Tree assembles the live tree. Given IDs, it is restricted to those nodes.
func (s *NodeService) Tree(ctx context.Context, ids ...uuid.UUID) (tree.Tree, error) {
	nodes, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	opts := s.treeOptions()
	if len(ids) > 0 {
		opts.IDs = make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			opts.IDs[id] = struct{}{}
		}
	}
	return tree.Build(nodes, opts), nil
}

// CriticalNodes assembles the tree of critical nodes and their ancestors.
func (s *NodeService) CriticalNodes(ctx context.Context) (tree.Tree, error) {
	nodes, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Critical(nodes, s.treeOptions())
}
