package drift

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// indexed is a node with its parent ID
type indexed struct {
	node   *types.Node
	parent types.NodeID
}

func index(root *types.Node) (map[types.NodeID]indexed, []types.NodeID) {
	byID := make(map[types.NodeID]indexed)
	var order []types.NodeID
	var visit func(n *types.Node, parent types.NodeID)
	visit = func(n *types.Node, parent types.NodeID) {
		if _, seen := byID[n.ID]; !seen {
			order = append(order, n.ID)
		}
		byID[n.ID] = indexed{node: n, parent: parent}
		for _, c := range n.Children {
			if c != nil {
				visit(c, n.ID)
			}
		}
	}
	if root != nil {
		visit(root, "")
	}
	return byID, order
}

// DetectPlanDrift compares a saved plan against a fresh regeneration of
// the same idea and options, node by node. Findings follow the order of
// the regenerated plan, then the saved plan for unexpected nodes.
func DetectPlanDrift(saved, regenerated *types.Node) []Finding {
	have, haveOrder := index(saved)
	want, wantOrder := index(regenerated)

	var findings []Finding
	for _, id := range wantOrder {
		w := want[id]
		h, ok := have[id]
		if !ok {
			findings = append(findings, Finding{
				Code:     CodeMissingNode,
				NodeID:   id.String(),
				Message:  fmt.Sprintf("%s %s (%q) is missing", w.node.Type, id, w.node.Title),
				Severity: SeverityError,
				Location: location(id),
			})
			continue
		}

		if fields := changedFields(h, w); len(fields) > 0 {
			findings = append(findings, Finding{
				Code:     CodeNodeChanged,
				NodeID:   id.String(),
				Message:  fmt.Sprintf("%s %s differs in %v", w.node.Type, id, fields),
				Severity: SeverityError,
				Fields:   fields,
				Location: location(id),
			})
		}

		if sameSet(childIDs(h.node), childIDs(w.node)) && !slices.Equal(childIDs(h.node), childIDs(w.node)) {
			findings = append(findings, Finding{
				Code:     CodeOrderChanged,
				NodeID:   id.String(),
				Message:  fmt.Sprintf("children of %s are reordered", id),
				Severity: SeverityWarning,
				Location: location(id),
			})
		}
	}

	for _, id := range haveOrder {
		if _, ok := want[id]; ok {
			continue
		}
		h := have[id]
		findings = append(findings, Finding{
			Code:     CodeUnexpectedNode,
			NodeID:   id.String(),
			Message:  fmt.Sprintf("%s %s (%q) is not part of the regenerated plan", h.node.Type, id, h.node.Title),
			Severity: SeverityError,
			Location: location(id),
		})
	}

	return findings
}

func changedFields(h, w indexed) []string {
	a, b := h.node, w.node
	var fields []string
	if h.parent != w.parent {
		fields = append(fields, "parent")
	}
	if a.Type != b.Type {
		fields = append(fields, "type")
	}
	if a.Title != b.Title {
		fields = append(fields, "title")
	}
	if a.Description != b.Description {
		fields = append(fields, "description")
	}
	if a.Role != b.Role {
		fields = append(fields, "role")
	}
	if a.Effort != b.Effort {
		fields = append(fields, "effort")
	}
	if a.ModelTarget != b.ModelTarget {
		fields = append(fields, "modelTarget")
	}
	if !slices.Equal(a.AcceptanceCriteria, b.AcceptanceCriteria) {
		fields = append(fields, "acceptanceCriteria")
	}
	return fields
}

func childIDs(n *types.Node) []types.NodeID {
	ids := make([]types.NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		if c != nil {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func sameSet(a, b []types.NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Clone(a), slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}

func location(id types.NodeID) string {
	return "node:" + id.String()
}

// GenerateReport creates a drift report for the plan at path
func GenerateReport(path string, findings []Finding, diff string) *Report {
	if findings == nil {
		findings = []Finding{}
	}
	summary := Summary{
		TotalFindings: len(findings),
	}

	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			summary.Errors++
		case SeverityWarning:
			summary.Warnings++
		case SeverityInfo:
			summary.Info++
		}
	}

	return &Report{
		Path:     path,
		Findings: findings,
		Diff:     diff,
		Summary:  summary,
	}
}

// HasErrors returns true if the report contains any error-level findings
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings returns true if the report contains any warning-level findings
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}

// IsClean returns true if the report has no findings and no textual diff
func (r *Report) IsClean() bool {
	return r.Summary.TotalFindings == 0 && r.Diff == ""
}
