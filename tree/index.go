package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ammiranda/td/models"
	"github.com/google/uuid"
)

var (
	// ErrUnknownNode is returned when a lineage starts at an ID the index does not hold
	ErrUnknownNode = errors.New("node not in tree")
	// ErrCycle is returned when following parent references revisits a node
	ErrCycle = errors.New("cycle in parent references")
	// ErrDanglingParent is returned when a parent reference points at no node
	ErrDanglingParent = errors.New("parent reference points at no node")
)

// Index holds the two derived views tree assembly needs: id -> node and
// parent id -> children. Nodes whose parent is not indexed are roots.
type Index struct {
	byID     map[uuid.UUID]*models.Node
	children map[uuid.UUID][]*models.Node
	roots    []*models.Node
}

// NewIndex indexes nodes. Children and roots are kept in sibling order.
func NewIndex(nodes []*models.Node) *Index {
	ix := &Index{
		byID:     make(map[uuid.UUID]*models.Node, len(nodes)),
		children: make(map[uuid.UUID][]*models.Node),
	}
	for _, n := range nodes {
		ix.byID[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID != nil {
			if _, ok := ix.byID[*n.ParentID]; ok {
				ix.children[*n.ParentID] = append(ix.children[*n.ParentID], n)
				continue
			}
		}
		ix.roots = append(ix.roots, n)
	}
	for _, c := range ix.children {
		SortSiblings(c)
	}
	SortSiblings(ix.roots)
	return ix
}

func (ix *Index) Node(id uuid.UUID) (*models.Node, bool) {
	n, ok := ix.byID[id]
	return n, ok
}

func (ix *Index) Children(id uuid.UUID) []*models.Node {
	return ix.children[id]
}

func (ix *Index) Roots() []*models.Node {
	return ix.roots
}

func (ix *Index) Len() int {
	return len(ix.byID)
}

// Lineage returns [self, parent, ..., root] for id.
func (ix *Index) Lineage(id uuid.UUID) ([]*models.Node, error) {
	n, ok := ix.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	seen := map[uuid.UUID]bool{}
	var chain []*models.Node
	for {
		if seen[n.ID] {
			return nil, fmt.Errorf("%w at %s", ErrCycle, n.Address())
		}
		seen[n.ID] = true
		chain = append(chain, n)

		if n.ParentID == nil {
			return chain, nil
		}
		parent, ok := ix.byID[*n.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s", ErrDanglingParent, n.Address(), *n.ParentID)
		}
		n = parent
	}
}

// SortSiblings orders nodes by explicit order, then creation time, then title.
// Unordered nodes sort after ordered ones.
func SortSiblings(nodes []*models.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
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
	})
}
