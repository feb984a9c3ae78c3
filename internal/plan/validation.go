package plan

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// ValidateStructure checks the rules every plan tree must satisfy
// regardless of the options it was generated with.
func ValidateStructure(root *Node) error {
	if root == nil {
		return fmt.Errorf("plan has no root node")
	}
	if root.Type != types.NodeTypeRoot {
		return fmt.Errorf("root node %q has type %q, want %q", root.ID, root.Type, types.NodeTypeRoot)
	}

	ids := make(map[types.NodeID]bool)
	seen := make(map[*Node]bool)

	var check func(n, parent *Node, depth int, inQA bool) error
	check = func(n, parent *Node, depth int, inQA bool) error {
		if n == nil {
			return fmt.Errorf("nil child under %q", parent.ID)
		}
		if seen[n] {
			return fmt.Errorf("node %q appears more than once in the tree", n.ID)
		}
		seen[n] = true

		if err := n.ID.Validate(); err != nil {
			return fmt.Errorf("invalid node ID: %w", err)
		}
		if ids[n.ID] {
			return fmt.Errorf("duplicate node ID %q", n.ID)
		}
		ids[n.ID] = true

		if err := n.Type.Validate(); err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
		if strings.TrimSpace(n.Title) == "" {
			return fmt.Errorf("node %q has an empty title", n.ID)
		}
		if strings.TrimSpace(n.Role) == "" {
			return fmt.Errorf("node %q has an empty role", n.ID)
		}

		if parent != nil {
			if n.Type == types.NodeTypeRoot {
				return fmt.Errorf("node %q: root type below the root", n.ID)
			}
			if n.Type != types.NodeTypeAtomic && n.Type != parent.Type.Next() {
				return fmt.Errorf("node %q of type %q cannot sit under %q of type %q", n.ID, n.Type, parent.ID, parent.Type)
			}
		}

		qa := inQA || IsQARole(n.Role)
		if inQA && !IsQARole(n.Role) {
			return fmt.Errorf("node %q inside a QA subtree has non-QA role %q", n.ID, n.Role)
		}
		if qa && !inQA && n.Type != types.NodeTypeProgram && n.Type != types.NodeTypeAtomic {
			return fmt.Errorf("QA role %q on %s node %q", n.Role, n.Type, n.ID)
		}

		switch n.Type {
		case types.NodeTypeAtomic:
			if len(n.Children) > 0 {
				return fmt.Errorf("atomic node %q has %d children", n.ID, len(n.Children))
			}
			if strings.TrimSpace(n.ModelTarget) == "" {
				return fmt.Errorf("atomic node %q has no model target", n.ID)
			}
			if len(n.AcceptanceCriteria) == 0 {
				return fmt.Errorf("atomic node %q has no acceptance criteria", n.ID)
			}
		case types.NodeTypeTask:
			if len(n.AcceptanceCriteria) == 0 {
				return fmt.Errorf("task node %q has no acceptance criteria", n.ID)
			}
		}
		if n.Type != types.NodeTypeAtomic && n.Type != types.NodeTypeRoot && len(n.Children) == 0 {
			return fmt.Errorf("%s node %q has no children", n.Type, n.ID)
		}

		for _, c := range n.Children {
			if err := check(c, n, depth+1, qa); err != nil {
				return err
			}
		}
		return nil
	}

	return check(root, nil, 0, false)
}

// Validate checks a tree against the options it was generated with:
// depth and breadth bounds, department count and QA injection.
func Validate(root *Node, opts Options) error {
	if err := ValidateStructure(root); err != nil {
		return err
	}
	opts = opts.Normalize()

	if got := len(root.Children); got != opts.DepartmentsCount {
		return fmt.Errorf("plan has %d departments, want %d", got, opts.DepartmentsCount)
	}

	var err error
	root.Walk(func(n *Node, depth int) bool {
		if depth > opts.Depth {
			err = fmt.Errorf("node %q at depth %d exceeds max depth %d", n.ID, depth, opts.Depth)
			return false
		}
		if n.Type == types.NodeTypeRoot || n.Type == types.NodeTypeAtomic {
			return true
		}

		limit := opts.Breadth
		if n.Type == types.NodeTypeDepartment && opts.IncludeQA {
			limit++
		}
		if len(n.Children) < 2 {
			err = fmt.Errorf("node %q has %d children, min 2", n.ID, len(n.Children))
			return false
		}
		if len(n.Children) > limit {
			err = fmt.Errorf("node %q has %d children, max %d", n.ID, len(n.Children), limit)
			return false
		}

		if n.Type == types.NodeTypeDepartment {
			if qerr := checkQA(n, opts.IncludeQA); qerr != nil {
				err = qerr
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	if !opts.IncludeQA {
		if n := countQA(root); n > 0 {
			return fmt.Errorf("plan has %d QA nodes but QA injection is off", n)
		}
	}

	return nil
}

// checkQA verifies that a department carries exactly one QA child, in last
// position, when QA injection is on, and none otherwise.
func checkQA(dept *Node, includeQA bool) error {
	qaChildren := 0
	for _, c := range dept.Children {
		if IsQARole(c.Role) {
			qaChildren++
		}
	}

	if !includeQA {
		if qaChildren > 0 {
			return fmt.Errorf("department %q has a QA child but QA injection is off", dept.ID)
		}
		return nil
	}

	if qaChildren != 1 {
		return fmt.Errorf("department %q has %d QA children, want 1", dept.ID, qaChildren)
	}
	last := dept.Children[len(dept.Children)-1]
	if !IsQARole(last.Role) || last.ID != dept.ID.Child("qa") {
		return fmt.Errorf("department %q: QA child must be last with ID %q", dept.ID, dept.ID.Child("qa"))
	}
	if len(dept.Children) < 3 {
		return fmt.Errorf("department %q has %d children besides QA, min 2", dept.ID, len(dept.Children)-1)
	}
	return nil
}

func countQA(root *Node) int {
	n := 0
	root.Walk(func(node *Node, _ int) bool {
		if IsQARole(node.Role) {
			n++
		}
		return true
	})
	return n
}
