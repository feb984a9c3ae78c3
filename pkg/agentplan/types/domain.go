package types

import (
	"fmt"
	"regexp"
	"strings"
)

// NodeID represents the identifier of a node inside one generated plan.
// This is a value object that enforces the path-encoded ID format
// (e.g. "root", "root-3", "root-3-qa-1").
type NodeID string

var (
	// nodeIDPattern validates that the ID contains only alphanumeric characters and hyphens
	// Must start with a letter, and can contain lowercase letters, numbers, and hyphens
	nodeIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	// maxNodeIDLength is the maximum allowed length for a node ID
	maxNodeIDLength = 100
)

// NewNodeID creates a new NodeID value object with validation
func NewNodeID(value string) (NodeID, error) {
	id := NodeID(value)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks if the node ID is valid
func (n NodeID) Validate() error {
	s := string(n)

	if s == "" {
		return fmt.Errorf("node ID cannot be empty")
	}

	if len(s) > maxNodeIDLength {
		return fmt.Errorf("node ID %q exceeds maximum length of %d characters", s, maxNodeIDLength)
	}

	if !nodeIDPattern.MatchString(s) {
		return fmt.Errorf("node ID %q must start with a letter and contain only lowercase letters, numbers, and hyphens", s)
	}

	if strings.Contains(s, "--") {
		return fmt.Errorf("node ID %q cannot contain consecutive hyphens", s)
	}

	if strings.HasSuffix(s, "-") {
		return fmt.Errorf("node ID %q cannot end with a hyphen", s)
	}

	return nil
}

// Child derives the ID of a child node from its parent ID and a path segment.
func (n NodeID) Child(segment string) NodeID {
	return NodeID(string(n) + "-" + segment)
}

// String returns the string representation
func (n NodeID) String() string {
	return string(n)
}

// NodeType is the level tag of a plan node.
type NodeType string

// Ordered level taxonomy, from the root down to executable leaves.
const (
	NodeTypeRoot       NodeType = "root"
	NodeTypeDepartment NodeType = "department"
	NodeTypeProgram    NodeType = "program"
	NodeTypeProject    NodeType = "project"
	NodeTypeTask       NodeType = "task"
	NodeTypeAtomic     NodeType = "atomic"
)

// NewNodeType creates a new NodeType value object with validation
func NewNodeType(value string) (NodeType, error) {
	t := NodeType(value)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate checks if the node type is part of the taxonomy
func (t NodeType) Validate() error {
	if t.Rank() < 0 {
		return fmt.Errorf("invalid node type %q: must be one of root, department, program, project, task, atomic", string(t))
	}
	return nil
}

// Rank returns the position of the type in the taxonomy, or -1 if unknown.
func (t NodeType) Rank() int {
	switch t {
	case NodeTypeRoot:
		return 0
	case NodeTypeDepartment:
		return 1
	case NodeTypeProgram:
		return 2
	case NodeTypeProject:
		return 3
	case NodeTypeTask:
		return 4
	case NodeTypeAtomic:
		return 5
	default:
		return -1
	}
}

// Next returns the structural type one level down. Task is the deepest
// structural level, so the level below a task is another task.
func (t NodeType) Next() NodeType {
	switch t {
	case NodeTypeRoot:
		return NodeTypeDepartment
	case NodeTypeDepartment:
		return NodeTypeProgram
	case NodeTypeProgram:
		return NodeTypeProject
	default:
		return NodeTypeTask
	}
}

// String returns the string representation
func (t NodeType) String() string {
	return string(t)
}

// IsLeafType reports whether nodes of this type never have children.
func (t NodeType) IsLeafType() bool {
	return t == NodeTypeAtomic
}
