package types

// Node is one node of a generated plan hierarchy. The JSON shape is the
// interchange format shared by the HTTP API, the page export and the CLI.
type Node struct {
	ID                 NodeID   `json:"id" yaml:"id"`
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description" yaml:"description"`
	Type               NodeType `json:"type" yaml:"type"`
	Role               string   `json:"role" yaml:"role"`
	Effort             string   `json:"effort,omitempty" yaml:"effort,omitempty"`           // small/medium/large, or a duration on atomic nodes
	ModelTarget        string   `json:"modelTarget,omitempty" yaml:"modelTarget,omitempty"` // set on atomic nodes
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty" yaml:"acceptanceCriteria,omitempty"`
	Children           []*Node  `json:"children" yaml:"children"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits the node and its descendants depth-first in child order.
// The root is visited at depth 0. Returning false from fn skips the
// subtree below the visited node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Find returns the node with the given ID, or nil.
func (n *Node) Find(id NodeID) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Options configures plan generation.
type Options struct {
	Breadth          int  `json:"breadth" yaml:"breadth" mapstructure:"breadth"`
	Depth            int  `json:"depth" yaml:"depth" mapstructure:"depth"`
	DepartmentsCount int  `json:"departmentsCount" yaml:"departmentsCount" mapstructure:"departments_count"`
	IncludeQA        bool `json:"includeQA" yaml:"includeQA" mapstructure:"include_qa"`
	AtomicTargetMins int  `json:"atomicTargetMins" yaml:"atomicTargetMins" mapstructure:"atomic_target_mins"`
}

// Option bounds. Values outside these ranges are clamped, never rejected.
const (
	MinBreadth = 2
	MaxBreadth = 4

	MinDepth = 4
	MaxDepth = 6

	MinDepartments = 3
	MaxDepartments = 10

	MinAtomicTargetMins = 10
	MaxAtomicTargetMins = 60
)

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		Breadth:          3,
		Depth:            5,
		DepartmentsCount: 6,
		IncludeQA:        true,
		AtomicTargetMins: 25,
	}
}

// Normalize returns a copy with every numeric field clamped to its bounds.
func (o Options) Normalize() Options {
	o.Breadth = clamp(o.Breadth, MinBreadth, MaxBreadth)
	o.Depth = clamp(o.Depth, MinDepth, MaxDepth)
	o.DepartmentsCount = clamp(o.DepartmentsCount, MinDepartments, MaxDepartments)
	o.AtomicTargetMins = clamp(o.AtomicTargetMins, MinAtomicTargetMins, MaxAtomicTargetMins)
	return o
}

// InRange reports whether every numeric field is already within bounds.
func (o Options) InRange() bool {
	return o == o.Normalize()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OptionsPatch is a partial Options as sent by API clients. Nil fields
// keep the value of the base options they are applied to.
type OptionsPatch struct {
	Breadth          *int  `json:"breadth,omitempty"`
	Depth            *int  `json:"depth,omitempty"`
	DepartmentsCount *int  `json:"departmentsCount,omitempty"`
	IncludeQA        *bool `json:"includeQA,omitempty"`
	AtomicTargetMins *int  `json:"atomicTargetMins,omitempty"`
}

// Apply overlays the set fields of the patch onto base.
func (p *OptionsPatch) Apply(base Options) Options {
	if p == nil {
		return base
	}
	if p.Breadth != nil {
		base.Breadth = *p.Breadth
	}
	if p.Depth != nil {
		base.Depth = *p.Depth
	}
	if p.DepartmentsCount != nil {
		base.DepartmentsCount = *p.DepartmentsCount
	}
	if p.IncludeQA != nil {
		base.IncludeQA = *p.IncludeQA
	}
	if p.AtomicTargetMins != nil {
		base.AtomicTargetMins = *p.AtomicTargetMins
	}
	return base
}

// PatchFrom returns a patch that sets every field of o.
func PatchFrom(o Options) *OptionsPatch {
	return &OptionsPatch{
		Breadth:          &o.Breadth,
		Depth:            &o.Depth,
		DepartmentsCount: &o.DepartmentsCount,
		IncludeQA:        &o.IncludeQA,
		AtomicTargetMins: &o.AtomicTargetMins,
	}
}

// GenerateRequest is the body of POST /api/plan.
type GenerateRequest struct {
	Idea    string        `json:"idea"`
	Options *OptionsPatch `json:"options,omitempty"`
}

// GenerateResponse is the success body of POST /api/plan.
type GenerateResponse struct {
	Plan *Node `json:"plan"`
}

// ErrorResponse is the failure body of the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
