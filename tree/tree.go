// Package tree assembles flat node snapshots into nested views.
package tree

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ammiranda/td/models"
	"github.com/google/uuid"
)

// DefaultCompletedGrace is how long a completed node stays visible.
const DefaultCompletedGrace = 5 * time.Second

// NodeKey is the JSON key a branch uses for its own node.
const NodeKey = "__node"

// Options filter what Build includes.
type Options struct {
	// Now is compared against UpdatedAt for the completed filter. Zero means time.Now().
	Now time.Time
	// CompletedGrace hides completed nodes, with their subtree, once they
	// have been unchanged for longer than this. Zero selects DefaultCompletedGrace;
	// a negative value disables the filter.
	CompletedGrace time.Duration
	// IDs, when non-nil, restricts the tree to these nodes.
	IDs map[uuid.UUID]struct{}
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o Options) grace() time.Duration {
	if o.CompletedGrace == 0 {
		return DefaultCompletedGrace
	}
	return o.CompletedGrace
}

// Hidden reports whether n is filtered out of the live view.
func (o Options) Hidden(n *models.Node) bool {
	grace := o.grace()
	if grace < 0 || n.Status != models.StatusCompleted {
		return false
	}
	return o.now().Sub(n.UpdatedAt) > grace
}

// Branch is one node of an assembled tree. Leaves have no Children.
type Branch struct {
	Node     *models.Node
	Children Tree
}

// IsLeaf reports whether the branch has no visible children.
func (b *Branch) IsLeaf() bool {
	return len(b.Children) == 0
}

// MarshalJSON encodes a leaf as its node and a branch as an object holding
// the node under NodeKey next to its children keyed by title.
func (b *Branch) MarshalJSON() ([]byte, error) {
	if b.IsLeaf() {
		return json.Marshal(b.Node)
	}
	obj := make(map[string]any, len(b.Children)+1)
	for title, child := range b.Children {
		obj[title] = child
	}
	obj[NodeKey] = b.Node
	return json.Marshal(obj)
}

// Tree maps titles to branches. At the top level keys are full addresses,
// which equal titles for true roots.
type Tree map[string]*Branch

// Build assembles nodes into a Tree, applying the completed filter and the
// optional ID restriction.
func Build(nodes []*models.Node, opts Options) Tree {
	if opts.IDs != nil {
		kept := make([]*models.Node, 0, len(opts.IDs))
		for _, n := range nodes {
			if _, ok := opts.IDs[n.ID]; ok {
				kept = append(kept, n)
			}
		}
		nodes = kept
	}
	return assemble(NewIndex(nodes), opts)
}

func assemble(ix *Index, opts Options) Tree {
	t := Tree{}
	for _, root := range ix.Roots() {
		if b := branch(ix, root, opts); b != nil {
			t[root.Address()] = b
		}
	}
	return t
}

func branch(ix *Index, n *models.Node, opts Options) *Branch {
	if opts.Hidden(n) {
		return nil
	}
	b := &Branch{Node: n}
	for _, child := range ix.Children(n.ID) {
		if cb := branch(ix, child, opts); cb != nil {
			if b.Children == nil {
				b.Children = Tree{}
			}
			b.Children[child.Title] = cb
		}
	}
	return b
}

// Critical builds the minimal visible tree containing every node whose
// title carries the critical marker, together with all of its ancestors.
func Critical(nodes []*models.Node, opts Options) (Tree, error) {
	visible := Build(nodes, opts)
	ix := NewIndex(nodes)

	ids := map[uuid.UUID]struct{}{}
	for _, n := range visible.Flatten() {
		if !n.IsCritical() {
			continue
		}
		lineage, err := ix.Lineage(n.ID)
		if err != nil {
			return nil, fmt.Errorf("error resolving lineage of %s: %w", n.Address(), err)
		}
		for _, a := range lineage {
			ids[a.ID] = struct{}{}
		}
	}

	opts.IDs = ids
	return Build(nodes, opts), nil
}

// Flatten lists every node in the tree depth-first, parents before
// children, siblings in sibling order.
func (t Tree) Flatten() []*models.Node {
	var out []*models.Node
	var walk func(Tree)
	walk = func(level Tree) {
		for _, b := range level.Sorted() {
			out = append(out, b.Node)
			walk(b.Children)
		}
	}
	walk(t)
	return out
}

// Sorted returns the branches of one level in sibling order.
func (t Tree) Sorted() []*Branch {
	nodes := make([]*models.Node, 0, len(t))
	byID := make(map[uuid.UUID]*Branch, len(t))
	for _, b := range t {
		nodes = append(nodes, b.Node)
		byID[b.Node.ID] = b
	}
	SortSiblings(nodes)
	out := make([]*Branch, len(nodes))
	for i, n := range nodes {
		out[i] = byID[n.ID]
	}
	return out
}

// Find walks titles from the top level down. The first segment may also be
// a top-level address.
func (t Tree) Find(segments ...string) (*Branch, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	b, ok := t[segments[0]]
	for _, s := range segments[1:] {
		if !ok {
			return nil, false
		}
		b, ok = b.Children[s]
	}
	return b, ok
}

// Outputs renders the tree as typed nested outputs, one per top-level branch.
func (t Tree) Outputs() []models.Output {
	out := make([]models.Output, 0, len(t))
	for _, b := range t.Sorted() {
		out = append(out, b.output())
	}
	return out
}

func (b *Branch) output() models.Output {
	o := models.NewOutput(b.Node)
	for _, child := range b.Children.Sorted() {
		o.AddChild(child.output())
	}
	return o
}
