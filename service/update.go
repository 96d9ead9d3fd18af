package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/repository"
)

// Update renames, moves and edits the node at req's current address. A
// relocated node keeps its ID; its descendants follow it.
func (s *NodeService) Update(ctx context.Context, req models.NodeUpdate) (*models.Node, error) {
	src, err := req.Source()
	if err != nil {
		return nil, err
	}

	var updated *models.Node
	err = s.mutate(ctx, "update", src.String(), func(st repository.Store) error {
		n, err := find(ctx, st, src)
		if err != nil {
			return err
		}

		if req.NewStatus != nil {
			n.Status = *req.NewStatus
		}
		if req.NewOrder != nil {
			order := *req.NewOrder
			n.Order = &order
		}
		if req.NewMeta != nil {
			n.Meta = *req.NewMeta
		}
		n.UpdatedAt = s.timestamp()

		target, err := req.Target(n.Location())
		if err != nil {
			return err
		}
		if target == n.Location() {
			if err := st.UpdateNode(ctx, n); err != nil {
				return err
			}
		} else if err := relocate(ctx, st, n, target); err != nil {
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Move re-parents the node at req under newParentPath; "" moves it to the root level.
func (s *NodeService) Move(ctx context.Context, req models.NodeRead, newParentPath string) (*models.Node, error) {
	return s.Update(ctx, models.NodeUpdate{Title: req.Title, Path: req.Path, NewPath: &newParentPath})
}

// Promote lifts the node one level, making it a sibling of its parent.
// Both a parent and a grandparent must exist.
func (s *NodeService) Promote(ctx context.Context, req models.NodeRead) (*models.Node, error) {
	addr, err := req.Address()
	if err != nil {
		return nil, err
	}

	var promoted *models.Node
	err = s.mutate(ctx, "promote", addr.String(), func(st repository.Store) error {
		n, err := find(ctx, st, addr)
		if err != nil {
			return err
		}
		if n.ParentID == nil {
			return fmt.Errorf("%w: %q is a root and cannot be promoted", ErrStructuralViolation, n.Address())
		}
		parent, err := st.GetNode(ctx, *n.ParentID)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			return fmt.Errorf("%w: parent of %q is a root", ErrStructuralViolation, n.Address())
		}

		n.UpdatedAt = s.timestamp()
		target := models.Address{Title: n.Title, Path: parent.Path, Type: parent.Type}
		if err := relocate(ctx, st, n, target); err != nil {
			return err
		}
		promoted = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// ToggleComplete flips a node between completed and active. Any other
// status becomes completed.
func (s *NodeService) ToggleComplete(ctx context.Context, req models.NodeRead) (*models.Node, error) {
	addr, err := req.Address()
	if err != nil {
		return nil, err
	}

	var toggled *models.Node
	err = s.mutate(ctx, "toggle_complete", addr.String(), func(st repository.Store) error {
		n, err := find(ctx, st, addr)
		if err != nil {
			return err
		}
		if n.Status == models.StatusCompleted {
			n.Status = models.StatusActive
		} else {
			n.Status = models.StatusCompleted
		}
		n.UpdatedAt = s.timestamp()
		if err := st.UpdateNode(ctx, n); err != nil {
			return err
		}
		toggled = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// ToggleCritical wraps or unwraps the node's title in the critical marker.
// The title is part of every descendant's path, so this cascades like a rename.
func (s *NodeService) ToggleCritical(ctx context.Context, req models.NodeRead) (*models.Node, error) {
	addr, err := req.Address()
	if err != nil {
		return nil, err
	}

	var toggled *models.Node
	err = s.mutate(ctx, "toggle_critical", addr.String(), func(st repository.Store) error {
		n, err := find(ctx, st, addr)
		if err != nil {
			return err
		}
		title := models.ToggleCriticalTitle(n.Title)
		if strings.TrimSpace(title) == "" {
			return &models.ValidationError{Field: "title", Message: fmt.Sprintf("%q has no title inside the marker", n.Title), Err: models.ErrInvalidAddress}
		}

		n.UpdatedAt = s.timestamp()
		if err := relocate(ctx, st, n, models.Address{Title: title, Path: n.Path, Type: n.Type}); err != nil {
			return err
		}
		toggled = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// relocate moves n to target, persists it and cascades to its subtree.
// The target must be free and its parent must already exist.
func relocate(ctx context.Context, st repository.Store, n *models.Node, target models.Address) error {
	occupant, err := st.FindByAddress(ctx, target.Path, target.Title)
	switch {
	case err == nil && occupant.ID != n.ID:
		return fmt.Errorf("%w: %q", ErrConflict, target.String())
	case err != nil && !errors.Is(err, repository.ErrNodeNotFound):
		return err
	}

	if models.IsWithin(target.Path, n.Address()) {
		return fmt.Errorf("%w: cannot move %q beneath itself", ErrStructuralViolation, n.Address())
	}

	n.ParentID = nil
	if parentAddr, ok := target.Parent(); ok {
		parent, err := find(ctx, st, parentAddr)
		if err != nil {
			return fmt.Errorf("target parent: %w", err)
		}
		n.ParentID = &parent.ID
	}

	n.Title, n.Path, n.Type = target.Title, target.Path, target.Type
	if err := st.UpdateNode(ctx, n); err != nil {
		return storeErr(err, target.String())
	}
	return cascade(ctx, st, n)
}

// cascade rewrites the path, type and parent of every descendant of
// parent, depth-first, each from its already updated parent. Descendant
// timestamps are left alone.
func cascade(ctx context.Context, st repository.Store, parent *models.Node) error {
	children, err := st.ListChildren(ctx, &parent.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		typ, err := models.TypeForDepth(parent.Type.Depth() + 1)
		if err != nil {
			return fmt.Errorf("%q: %w", child.Title, err)
		}
		id := parent.ID
		child.Path = parent.Address()
		child.Type = typ
		child.ParentID = &id
		if err := st.UpdateNode(ctx, child); err != nil {
			return storeErr(err, child.Address())
		}
		if err := cascade(ctx, st, child); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a node, addressed by ID or by address, together with its
// subtree and reports how many nodes were removed.
func (s *NodeService) Delete(ctx context.Context, req models.NodeDelete) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	label := models.JoinPath(req.Path, req.Title)
	if req.ID != nil {
		label = req.ID.String()
	}

	deleted := 0
	err := s.mutate(ctx, "delete", label, func(st repository.Store) error {
		var (
			n   *models.Node
			err error
		)
		if req.ID != nil {
			n, err = st.GetNode(ctx, *req.ID)
			if errors.Is(err, repository.ErrNodeNotFound) {
				err = fmt.Errorf("node %s: %w", *req.ID, ErrNotFound)
			}
		} else {
			var addr models.Address
			if addr, err = req.Address(); err == nil {
				n, err = find(ctx, st, addr)
			}
		}
		if err != nil {
			return err
		}
		deleted, err = deleteSubtree(ctx, st, n)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// deleteSubtree deletes children before their parent.
func deleteSubtree(ctx context.Context, st repository.Store, n *models.Node) (int, error) {
	children, err := st.ListChildren(ctx, &n.ID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, child := range children {
		c, err := deleteSubtree(ctx, st, child)
		if err != nil {
			return 0, err
		}
		count += c
	}
	if err := st.DeleteNode(ctx, n.ID); err != nil {
		return 0, err
	}
	return count + 1, nil
}

// Wipe deletes every node.
func (s *NodeService) Wipe(ctx context.Context) (int64, error) {
	var n int64
	err := s.mutate(ctx, "wipe", "", func(st repository.Store) error {
		var err error
		n, err = st.DeleteAll(ctx)
		return err
	})
	return n, err
}
