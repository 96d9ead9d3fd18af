package models

import (
	"time"

	"github.com/google/uuid"
)

// NodeOutput is the field set every typed output exposes.
type NodeOutput struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Type      NodeType   `json:"type"`
	Status    NodeStatus `json:"status"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Order     *float64   `json:"order,omitempty"`
	Path      string     `json:"path"`
	Meta      string     `json:"meta"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Output is a type-specialized view of a node.
type Output interface {
	Base() *NodeOutput
	// AddChild attaches a child one level down. It reports false when the
	// child's type is not the next level.
	AddChild(child Output) bool
}

func (o *NodeOutput) Base() *NodeOutput { return o }

// Address returns the fully qualified identifier of the output's node.
func (o *NodeOutput) Address() string { return JoinPath(o.Path, o.Title) }

type SubtaskOutput struct {
	NodeOutput
}

func (o *SubtaskOutput) AddChild(Output) bool { return false }

type TaskOutput struct {
	NodeOutput
	Children []*SubtaskOutput `json:"children"`
}

func (o *TaskOutput) AddChild(child Output) bool {
	c, ok := child.(*SubtaskOutput)
	if ok {
		o.Children = append(o.Children, c)
	}
	return ok
}

type SectionOutput struct {
	NodeOutput
	Children []*TaskOutput `json:"children"`
}

func (o *SectionOutput) AddChild(child Output) bool {
	c, ok := child.(*TaskOutput)
	if ok {
		o.Children = append(o.Children, c)
	}
	return ok
}

type ProjectOutput struct {
	NodeOutput
	Children []*SectionOutput `json:"children"`
}

func (o *ProjectOutput) AddChild(child Output) bool {
	c, ok := child.(*SectionOutput)
	if ok {
		o.Children = append(o.Children, c)
	}
	return ok
}

type AreaOutput struct {
	NodeOutput
	Children []*ProjectOutput `json:"children"`
}

func (o *AreaOutput) AddChild(child Output) bool {
	c, ok := child.(*ProjectOutput)
	if ok {
		o.Children = append(o.Children, c)
	}
	return ok
}

type SectorOutput struct {
	NodeOutput
	Children []*AreaOutput `json:"children"`
}

func (o *SectorOutput) AddChild(child Output) bool {
	c, ok := child.(*AreaOutput)
	if ok {
		o.Children = append(o.Children, c)
	}
	return ok
}

var outputRegistry = map[NodeType]func(NodeOutput) Output{
	Sector:  func(b NodeOutput) Output { return &SectorOutput{NodeOutput: b, Children: []*AreaOutput{}} },
	Area:    func(b NodeOutput) Output { return &AreaOutput{NodeOutput: b, Children: []*ProjectOutput{}} },
	Project: func(b NodeOutput) Output { return &ProjectOutput{NodeOutput: b, Children: []*SectionOutput{}} },
	Section: func(b NodeOutput) Output { return &SectionOutput{NodeOutput: b, Children: []*TaskOutput{}} },
	Task:    func(b NodeOutput) Output { return &TaskOutput{NodeOutput: b, Children: []*SubtaskOutput{}} },
	Subtask: func(b NodeOutput) Output { return &SubtaskOutput{NodeOutput: b} },
}

// NewOutput builds the typed output registered for the node's type.
func NewOutput(n *Node) Output {
	base := NodeOutput{
		ID:        n.ID,
		Title:     n.Title,
		Type:      n.Type,
		Status:    n.Status,
		ParentID:  n.ParentID,
		Order:     n.Order,
		Path:      n.Path,
		Meta:      n.Meta,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	build, ok := outputRegistry[n.Type]
	if !ok {
		return &SubtaskOutput{NodeOutput: base}
	}
	return build(base)
}

// NewOutputs maps NewOutput over nodes.
func NewOutputs(nodes []*Node) []Output {
	out := make([]Output, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NewOutput(n))
	}
	return out
}
