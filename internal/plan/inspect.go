package plan

import (
	"strings"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// IdeaOf recovers the idea a plan was generated from, as recorded in the
// root description.
func IdeaOf(root *Node) (string, bool) {
	if root == nil || root.Type != types.NodeTypeRoot {
		return "", false
	}
	idea, ok := strings.CutPrefix(root.Description, objectivePrefix)
	idea = normalizeIdea(idea)
	return idea, ok && idea != ""
}

// InferOptions returns base with the options that the tree shape records
// exactly: the department count and whether QA programs were added.
// Breadth, depth and the atomic target leave no unambiguous trace and
// keep their base values.
func InferOptions(root *Node, base Options) Options {
	if root == nil || len(root.Children) == 0 {
		return base
	}
	base.DepartmentsCount = len(root.Children)
	base.IncludeQA = countQA(root) > 0
	return base
}
