package tui

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// RenderOutline renders the whole tree as indented plain text, one node
// per line, for terminals and pipes where the interactive viewer is not
// wanted.
func RenderOutline(root *types.Node) string {
	if root == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(summaryLine(plan.Summarize(root)))
	b.WriteString("\n\n")

	root.Walk(func(n *types.Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(outlineLine(n))
		b.WriteString("\n")
		return true
	})
	return b.String()
}

func outlineLine(n *types.Node) string {
	line := fmt.Sprintf("- [%s] %s (%s)", n.Type, n.Title, n.Role)
	if n.Effort != "" {
		line += " " + n.Effort
	}
	if n.ModelTarget != "" {
		line += " @" + n.ModelTarget
	}
	return line
}

// summaryLine condenses plan statistics into one line
func summaryLine(s plan.Stats) string {
	return fmt.Sprintf("%d nodes | %d departments | %d atomic steps | depth %d | %d QA nodes | ~%s of atomic work",
		s.Nodes,
		s.ByType[types.NodeTypeDepartment],
		s.ByType[types.NodeTypeAtomic],
		s.MaxDepth,
		s.QANodes,
		hours(s.AtomicMinutes))
}

func hours(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins%60 == 0 {
		return fmt.Sprintf("%dh", mins/60)
	}
	return fmt.Sprintf("%.1fh", float64(mins)/60)
}
