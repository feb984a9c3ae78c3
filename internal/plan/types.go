package plan

import (
	"strings"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// Node is a plan node; the wire type lives in pkg/agentplan/types so API
// clients can decode plans without importing internal packages.
type Node = types.Node

// Options configures plan generation
type Options = types.Options

// ModelTargetSmall is the model class every atomic node is sized for
const ModelTargetSmall = "7-8B"

// RootRole is the role of the root node
const RootRole = "Executive"

// qaRole is the base role of injected verification subtrees. Every role
// inside a QA subtree starts with it and no other role does.
const qaRole = "QA"

// IsQARole reports whether role belongs to a QA verification subtree
func IsQARole(role string) bool {
	return role == qaRole || strings.HasPrefix(role, qaRole+" ")
}

// roleFor derives the acting role of a node from its lineage's base role
// and its level.
func roleFor(base string, t types.NodeType) string {
	switch t {
	case types.NodeTypeRoot:
		return RootRole
	case types.NodeTypeDepartment:
		return base
	case types.NodeTypeProgram:
		return base + " Lead"
	case types.NodeTypeProject:
		return base + " Manager"
	case types.NodeTypeTask:
		return base + " Specialist"
	default:
		return base + " Agent"
	}
}

// levelLabel is the title prefix used for structural nodes of a given type
func levelLabel(t types.NodeType) string {
	switch t {
	case types.NodeTypeProgram:
		return "Program"
	case types.NodeTypeProject:
		return "Project"
	case types.NodeTypeTask:
		return "Task"
	default:
		return "Step"
	}
}
