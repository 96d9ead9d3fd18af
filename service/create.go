package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/repository"
	"github.com/google/uuid"
)

// CreateDelimiter separates titles in a fan-out create ("a;b;c").
const CreateDelimiter = ";"

// DefaultBootstrap is the structure Bootstrap seeds when given nothing.
var DefaultBootstrap = []string{"uncategorized/uncategorized"}

// Create resolves req and gets or creates the node it addresses, creating
// missing ancestors on the way. A title holding CreateDelimiter creates
// one sibling per piece. Existing nodes are returned unchanged.
func (s *NodeService) Create(ctx context.Context, req models.NodeCreate) ([]*models.Node, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created []*models.Node
	err := s.mutate(ctx, "create", models.JoinPath(req.Path, req.Title), func(st repository.Store) error {
		addr, err := resolveCreate(ctx, st, req)
		if err != nil {
			return err
		}

		titles := splitTitles(addr.Title)
		if len(titles) == 0 {
			return &models.ValidationError{Field: "title", Message: "title has no usable piece", Err: models.ErrInvalidAddress}
		}

		now := s.timestamp()
		parentID, err := ensurePath(ctx, st, addr.Path, now)
		if err != nil {
			return err
		}

		seen := map[uuid.UUID]bool{}
		created = created[:0]
		for _, title := range titles {
			leaf := models.Address{Title: title, Path: addr.Path, Type: addr.Type}
			n, err := getOrCreate(ctx, st, leaf, parentID, now, func(n *models.Node) {
				if req.Status != "" {
					n.Status = req.Status
				}
				n.Order = req.Order
				if req.Meta != "" {
					n.Meta = req.Meta
				}
			})
			if err != nil {
				return err
			}
			if !seen[n.ID] {
				seen[n.ID] = true
				created = append(created, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveCreate turns the request into an address, deriving the path from
// ParentID when one is given and checking the requested type.
func resolveCreate(ctx context.Context, st repository.Store, req models.NodeCreate) (models.Address, error) {
	path := req.Path
	if req.ParentID != nil {
		if req.Title == "" {
			return models.Address{}, &models.ValidationError{Field: "title", Message: "title is required with parent_id", Err: models.ErrInvalidAddress}
		}
		parent, err := st.GetNode(ctx, *req.ParentID)
		if errors.Is(err, repository.ErrNodeNotFound) {
			return models.Address{}, fmt.Errorf("parent %s: %w", *req.ParentID, ErrNotFound)
		}
		if err != nil {
			return models.Address{}, err
		}
		if path != "" && models.NormalizePath(path) != parent.Address() {
			return models.Address{}, &models.ValidationError{
				Field:   "parent_id",
				Message: fmt.Sprintf("parent %q does not match path %q", parent.Address(), path),
				Err:     models.ErrInvalidAddress,
			}
		}
		path = parent.Address()
	}

	addr, err := models.Resolve(req.Title, path)
	if err != nil {
		return models.Address{}, err
	}
	if req.Type != nil && *req.Type != addr.Type {
		return models.Address{}, &models.ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("%s requested but %q is a %s", *req.Type, addr.String(), addr.Type),
			Err:     models.ErrInvalidAddress,
		}
	}
	return addr, nil
}

func splitTitles(title string) []string {
	var out []string
	for _, piece := range strings.Split(title, CreateDelimiter) {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// ensurePath gets or creates every node along path, root first, and
// returns the ID of the last one (nil for the root level).
func ensurePath(ctx context.Context, st repository.Store, path string, now time.Time) (*uuid.UUID, error) {
	var parentID *uuid.UUID
	segments := models.SplitPath(path)
	for depth, title := range segments {
		typ, err := models.TypeForDepth(depth)
		if err != nil {
			return nil, err
		}
		addr := models.Address{Title: title, Path: strings.Join(segments[:depth], models.Separator), Type: typ}
		n, err := getOrCreate(ctx, st, addr, parentID, now, nil)
		if err != nil {
			return nil, err
		}
		parentID = &n.ID
	}
	return parentID, nil
}

// getOrCreate returns the node at addr, creating it under parentID if the
// address is free. init customizes a node before it is inserted.
func getOrCreate(ctx context.Context, st repository.Store, addr models.Address, parentID *uuid.UUID, now time.Time, init func(*models.Node)) (*models.Node, error) {
	existing, err := st.FindByAddress(ctx, addr.Path, addr.Title)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNodeNotFound) {
		return nil, err
	}

	n := models.NewNode(addr, parentID, now)
	if init != nil {
		init(n)
	}
	if err := st.CreateNode(ctx, n); err != nil {
		return nil, storeErr(err, addr.String())
	}
	return n, nil
}

// Bootstrap seeds the given addresses, or DefaultBootstrap when none are
// given. It is idempotent.
func (s *NodeService) Bootstrap(ctx context.Context, addresses ...string) ([]*models.Node, error) {
	if len(addresses) == 0 {
		addresses = DefaultBootstrap
	}
	var seeded []*models.Node
	for _, a := range addresses {
		nodes, err := s.Create(ctx, models.NodeCreate{Path: a})
		if err != nil {
			return nil, fmt.Errorf("error seeding %q: %w", a, err)
		}
		seeded = append(seeded, nodes...)
	}
	return seeded, nil
}
