package tree

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ammiranda/td/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// fixture builds nodes for addresses given root-first; parents must precede children.
type fixture struct {
	nodes  []*models.Node
	byAddr map[string]*models.Node
	tick   int
}

func newFixture(addresses ...string) *fixture {
	f := &fixture{byAddr: map[string]*models.Node{}}
	for _, a := range addresses {
		f.add(a)
	}
	return f
}

func (f *fixture) add(address string) *models.Node {
	addr, err := models.Resolve("", address)
	if err != nil {
		panic(err)
	}
	var parentID *uuid.UUID
	if addr.Path != "" {
		parent := f.byAddr[addr.Path]
		parentID = &parent.ID
	}
	f.tick++
	n := models.NewNode(addr, parentID, baseTime.Add(time.Duration(f.tick)*time.Millisecond))
	f.nodes = append(f.nodes, n)
	f.byAddr[address] = n
	return n
}

func (f *fixture) get(address string) *models.Node {
	return f.byAddr[address]
}

func titles(nodes []*models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Address()
	}
	return out
}

func TestBuildNesting(t *testing.T) {
	f := newFixture("work", "work/x", "work/x/sprint", "work/y", "home")
	tr := Build(f.nodes, Options{Now: baseTime})

	require.Len(t, tr, 2)
	work, ok := tr.Find("work")
	require.True(t, ok)
	assert.False(t, work.IsLeaf())
	assert.Len(t, work.Children, 2)

	sprint, ok := tr.Find("work", "x", "sprint")
	require.True(t, ok)
	assert.True(t, sprint.IsLeaf())
	assert.Equal(t, f.get("work/x/sprint").ID, sprint.Node.ID)

	_, ok = tr.Find("work", "z")
	assert.False(t, ok)
	_, ok = tr.Find()
	assert.False(t, ok)

	assert.Equal(t, []string{"work", "work/x", "work/x/sprint", "work/y", "home"}, titles(tr.Flatten()))
}

func TestVisibilityFilter(t *testing.T) {
	f := newFixture("s", "s/t1", "s/t1/st", "s/t2")
	t1 := f.get("s/t1")
	t1.Status = models.StatusCompleted
	t1.UpdatedAt = baseTime.Add(-24 * time.Hour)

	tr := Build(f.nodes, Options{Now: baseTime})

	_, ok := tr.Find("s", "t1")
	assert.False(t, ok, "stale completed node should be hidden")
	_, ok = tr.Find("s", "t2")
	assert.True(t, ok)
	assert.Equal(t, []string{"s", "s/t2"}, titles(tr.Flatten()), "hidden node's subtree goes with it")
}

func TestVisibilityFilterGraceWindow(t *testing.T) {
	f := newFixture("s", "s/t1")
	t1 := f.get("s/t1")
	t1.Status = models.StatusCompleted
	t1.UpdatedAt = baseTime.Add(-2 * time.Second)

	tr := Build(f.nodes, Options{Now: baseTime})
	_, ok := tr.Find("s", "t1")
	assert.True(t, ok, "recently completed node stays inside the default grace window")

	tr = Build(f.nodes, Options{Now: baseTime, CompletedGrace: time.Second})
	_, ok = tr.Find("s", "t1")
	assert.False(t, ok)

	t1.UpdatedAt = baseTime.Add(-time.Hour)
	tr = Build(f.nodes, Options{Now: baseTime, CompletedGrace: -1})
	_, ok = tr.Find("s", "t1")
	assert.True(t, ok, "negative grace disables the filter")
}

func TestArchivedStaysVisible(t *testing.T) {
	f := newFixture("s", "s/old")
	old := f.get("s/old")
	old.Status = models.StatusArchived
	old.UpdatedAt = baseTime.Add(-24 * time.Hour)

	_, ok := Build(f.nodes, Options{Now: baseTime}).Find("s", "old")
	assert.True(t, ok)
}

func TestBuildRestrictedToIDs(t *testing.T) {
	f := newFixture("a", "a/b", "a/b/c", "a/d")
	ids := map[uuid.UUID]struct{}{
		f.get("a/b").ID:   {},
		f.get("a/b/c").ID: {},
	}

	tr := Build(f.nodes, Options{Now: baseTime, IDs: ids})
	require.Len(t, tr, 1)
	b, ok := tr.Find("a/b", "c")
	require.True(t, ok)
	assert.Equal(t, "c", b.Node.Title)
}

func TestCriticalProjection(t *testing.T) {
	f := newFixture(
		"work", "work/x", "work/x/sprint", "work/x/sprint/fix", "work/x/sprint/other",
		"work/y", "work/y/z", "home", "home/chores",
	)
	fix := f.get("work/x/sprint/fix")
	fix.Title = models.ToggleCriticalTitle(fix.Title)

	tr, err := Critical(f.nodes, Options{Now: baseTime})
	require.NoError(t, err)

	assert.Equal(t, []string{"work", "work/x", "work/x/sprint", "work/x/sprint/*fix*"}, titles(tr.Flatten()))
	_, ok := tr.Find("home")
	assert.False(t, ok, "unrelated subtree must be excluded")
	_, ok = tr.Find("work", "y")
	assert.False(t, ok, "unrelated sibling subtree must be excluded")
}

func TestCriticalProjectionEmpty(t *testing.T) {
	f := newFixture("work", "work/x")
	tr, err := Critical(f.nodes, Options{Now: baseTime})
	require.NoError(t, err)
	assert.Empty(t, tr)
}

func TestLineage(t *testing.T) {
	f := newFixture("a", "a/b", "a/b/c")
	ix := NewIndex(f.nodes)

	chain, err := ix.Lineage(f.get("a/b/c").ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c", "a/b", "a"}, titles(chain))

	_, err = ix.Lineage(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestLineageCycleAndDangling(t *testing.T) {
	f := newFixture("a", "a/b")
	a, b := f.get("a"), f.get("a/b")
	a.ParentID = &b.ID

	_, err := NewIndex(f.nodes).Lineage(b.ID)
	assert.ErrorIs(t, err, ErrCycle)

	missing := uuid.New()
	a.ParentID = &missing
	_, err = NewIndex(f.nodes).Lineage(b.ID)
	assert.ErrorIs(t, err, ErrDanglingParent)
}

func TestSiblingOrder(t *testing.T) {
	f := newFixture("s", "s/c", "s/b", "s/a")
	first := 1.0
	f.get("s/a").Order = &first

	tr := Build(f.nodes, Options{Now: baseTime})
	assert.Equal(t, []string{"s", "s/a", "s/c", "s/b"}, titles(tr.Flatten()))
}

func TestMarshalJSON(t *testing.T) {
	f := newFixture("s", "s/a", "s/a/p")
	data, err := json.Marshal(Build(f.nodes, Options{Now: baseTime}))
	require.NoError(t, err)

	var decoded map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))

	s := decoded["s"]
	require.Contains(t, s, NodeKey)
	require.Contains(t, s, "a")

	var node models.Node
	require.NoError(t, json.Unmarshal(s[NodeKey], &node))
	assert.Equal(t, f.get("s").ID, node.ID)

	var a map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(s["a"], &a))
	require.Contains(t, a, "p")

	var leaf models.Node
	require.NoError(t, json.Unmarshal(a["p"], &leaf))
	assert.Equal(t, models.Project, leaf.Type)
}

func TestOutputs(t *testing.T) {
	f := newFixture("s", "s/a", "s/a/p", "s/b")
	out := Build(f.nodes, Options{Now: baseTime}).Outputs()
	require.Len(t, out, 1)

	sector, ok := out[0].(*models.SectorOutput)
	require.True(t, ok)
	require.Len(t, sector.Children, 2)
	assert.Equal(t, "a", sector.Children[0].Title)
	require.Len(t, sector.Children[0].Children, 1)
	assert.Equal(t, "p", sector.Children[0].Children[0].Title)
}

func TestOutline(t *testing.T) {
	f := newFixture("s", "s/a")
	f.get("s/a").Status = models.StatusCompleted
	f.get("s/a").UpdatedAt = baseTime

	assert.Equal(t, "- [ ] s (sr)\n  - [x] a (a)\n", Build(f.nodes, Options{Now: baseTime}).Outline())
}
