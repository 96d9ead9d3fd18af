package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NodeType is the level of a node in the hierarchy. Its value is the depth
// of the node, i.e. the number of segments in its path.
type NodeType int

const (
	Sector NodeType = iota
	Area
	Project
	Section
	Task
	Subtask
)

// MaxDepth is the depth of the deepest node type.
const MaxDepth = int(Subtask)

var nodeTypeNames = [...]string{"sector", "area", "project", "section", "task", "subtask"}

var nodeTypeAliases = map[string]NodeType{
	"sr": Sector,
	"a":  Area,
	"p":  Project,
	"sn": Section,
	"t":  Task,
	"st": Subtask,
}

// TypeForDepth maps a path depth onto the type sequence.
func TypeForDepth(depth int) (NodeType, error) {
	if depth < 0 || depth > MaxDepth {
		return 0, &ValidationError{
			Field:   "path",
			Message: fmt.Sprintf("depth %d is outside the hierarchy (max %d)", depth, MaxDepth),
			Err:     ErrInvalidAddress,
		}
	}
	return NodeType(depth), nil
}

// ParseNodeType accepts a type name ("task") or its short alias ("t").
func ParseNodeType(s string) (NodeType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range nodeTypeNames {
		if name == s {
			return NodeType(i), nil
		}
	}
	if t, ok := nodeTypeAliases[s]; ok {
		return t, nil
	}
	return 0, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown node type %q", s), Err: ErrInvalidRequest}
}

func (t NodeType) Valid() bool {
	return t >= Sector && t <= Subtask
}

// Depth returns the path depth the type corresponds to.
func (t NodeType) Depth() int {
	return int(t)
}

func (t NodeType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// Alias returns the short form used in compact listings.
func (t NodeType) Alias() string {
	for alias, nt := range nodeTypeAliases {
		if nt == t {
			return alias
		}
	}
	return t.String()
}

func (t NodeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid node type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *NodeType) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NodeStatus is the lifecycle state of a node.
type NodeStatus string

const (
	StatusActive    NodeStatus = "active"
	StatusCompleted NodeStatus = "completed"
	// StatusArchived is reserved: no engine operation moves a node into it.
	StatusArchived NodeStatus = "archived"
)

func (s NodeStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// CriticalMarker wraps the title of a node flagged as critical.
const CriticalMarker = "*"

// DefaultMeta is stored when a node is created without metadata.
const DefaultMeta = "{}"

// Node is a single row of the hierarchy. Type always equals the depth of
// Path and ParentID always points at the node addressed by Path.
type Node struct {
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

// NewNode builds an active node at the given address.
func NewNode(addr Address, parentID *uuid.UUID, now time.Time) *Node {
	return &Node{
		ID:        uuid.New(),
		Title:     addr.Title,
		Type:      addr.Type,
		Status:    StatusActive,
		ParentID:  parentID,
		Path:      addr.Path,
		Meta:      DefaultMeta,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Address returns the fully qualified "path/title" identifier.
func (n *Node) Address() string {
	return JoinPath(n.Path, n.Title)
}

// Location returns the node's position as a resolved Address.
func (n *Node) Location() Address {
	return Address{Title: n.Title, Path: n.Path, Type: n.Type}
}

func (n *Node) Depth() int {
	return len(SplitPath(n.Path))
}

func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

func (n *Node) IsCritical() bool {
	return IsCritical(n.Title)
}

// Clone returns a deep copy so stores can hand out rows without sharing them.
func (n *Node) Clone() *Node {
	c := *n
	if n.ParentID != nil {
		id := *n.ParentID
		c.ParentID = &id
	}
	if n.Order != nil {
		o := *n.Order
		c.Order = &o
	}
	return &c
}

// IsCritical reports whether a title carries the critical marker.
func IsCritical(title string) bool {
	return strings.HasPrefix(title, CriticalMarker)
}

// ToggleCriticalTitle wraps a title in the critical marker or strips it.
func ToggleCriticalTitle(title string) string {
	if IsCritical(title) {
		return strings.Trim(title, CriticalMarker)
	}
	return CriticalMarker + title + CriticalMarker
}

// ValidMeta reports whether meta is empty or a JSON document.
func ValidMeta(meta string) bool {
	return meta == "" || json.Valid([]byte(meta))
}
