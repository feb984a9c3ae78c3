package plan

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

const (
	// maxTitleRunes bounds the root title derived from the idea
	maxTitleRunes = 80
	// qaScopeShare is the share of a department's scope given to its QA program
	qaScopeShare = 0.3
)

// lineage carries what a subtree inherits from its department
type lineage struct {
	role   string
	themes []string
	qa     bool
}

// placement describes where a node sits before it is built
type placement struct {
	id    types.NodeID
	index int
	depth int
	typ   types.NodeType
	scope float64 // estimated minutes of work
	title string  // optional; derived from the lineage phrases when empty
	role  string  // optional; derived from the lineage role when empty
	slot  int     // phrase slot within the sibling group
	fixed bool    // keep the given type even when the scope fits one step
}

type generator struct {
	idea string
	opts Options
}

// Generate expands an idea into a plan tree. The idea is trimmed and must
// not be empty; numeric options are clamped to their bounds. The result is
// a pure function of (idea, opts): repeated calls return identical trees.
func Generate(idea string, opts Options) (root *Node, err error) {
	idea = normalizeIdea(idea)
	if idea == "" {
		return nil, errors.NewInvalidInputError()
	}

	defer func() {
		if r := recover(); r != nil {
			root = nil
			err = errors.NewGenerationError(fmt.Errorf("panic: %v", r))
		}
	}()

	g := &generator{idea: idea, opts: opts.Normalize()}
	tree := g.root()

	if verr := Validate(tree, g.opts); verr != nil {
		return nil, errors.NewGenerationError(verr)
	}

	return tree, nil
}

// objectivePrefix starts the root description, followed by the idea
const objectivePrefix = "Objective: "

func normalizeIdea(idea string) string {
	return strings.TrimSpace(idea)
}

func (g *generator) root() *Node {
	root := &Node{
		ID:          "root",
		Title:       titleFromIdea(g.idea),
		Description: objectivePrefix + g.idea,
		Type:        types.NodeTypeRoot,
		Role:        RootRole,
		Children:    []*Node{},
	}

	for i, dept := range departmentRoles(g.idea, g.opts.DepartmentsCount) {
		root.Children = append(root.Children, g.department(root, i+1, dept))
	}

	return root
}

func (g *generator) department(root *Node, index int, dept department) *Node {
	id := root.ID.Child(strconv.Itoa(index))
	rng := seededRand(g.idea, id)
	ln := lineage{role: dept.Name, themes: dept.Themes}

	// Departments are never collapsed by scope, and Depth >= MinDepth
	// leaves at least two levels beneath them.
	levelsBelow := float64(g.opts.Depth - 2)
	scope := float64(g.opts.AtomicTargetMins) * math.Pow(float64(g.opts.Breadth), levelsBelow) * jitter(rng, 0.6, 1.4)

	node := &Node{
		ID:          id,
		Title:       dept.Name + " Department",
		Description: fmt.Sprintf("The %s department %s for \"%s\".", dept.Name, dept.Mandate, root.Title),
		Type:        types.NodeTypeDepartment,
		Role:        roleFor(dept.Name, types.NodeTypeDepartment),
		Children:    []*Node{},
	}

	g.expand(node, 1, scope, ln, rng)

	if g.opts.IncludeQA {
		qa := lineage{role: qaRole, themes: qaPhrases.Projects, qa: true}
		node.Children = append(node.Children, g.node(node, placement{
			id:    id.Child("qa"),
			index: len(node.Children) + 1,
			depth: 2,
			typ:   types.NodeTypeProgram,
			scope: scope * qaScopeShare,
			title: fmt.Sprintf("QA Program: %s %s", dept.Name, qaTheme),
			role:  qaRole,
			fixed: true,
		}, qa))
	}

	if allAtomic(node.Children) {
		node.Effort = g.effortBand(scope)
	}

	return node
}

// expand attaches 2..breadth children to node, splitting its scope.
func (g *generator) expand(node *Node, depth int, scope float64, ln lineage, rng *rand.Rand) {
	fanOut := 2 + rng.IntN(g.opts.Breadth-1)
	offset := rng.IntN(64)
	share := scope / float64(fanOut)
	childType := node.Type.Next()

	for i := 1; i <= fanOut; i++ {
		node.Children = append(node.Children, g.node(node, placement{
			id:    node.ID.Child(strconv.Itoa(i)),
			index: i,
			depth: depth + 1,
			typ:   childType,
			scope: share * jitter(rng, 0.6, 1.4),
			slot:  offset + i - 1,
		}, ln))
	}
}

// node builds the node at p, classifying it atomic when the remaining depth
// is exhausted or its scope already fits the atomic target.
func (g *generator) node(parent *Node, p placement, ln lineage) *Node {
	rng := seededRand(g.idea, p.id)

	if p.depth >= g.opts.Depth-1 || (!p.fixed && p.scope <= float64(g.opts.AtomicTargetMins)) {
		return g.atomic(parent, p, ln, rng)
	}

	title := p.title
	if title == "" {
		title = fmt.Sprintf("%s %d: %s", levelLabel(p.typ), p.index, ln.phraseFor(p.typ, p.slot, 0))
	}

	role := p.role
	if role == "" {
		role = roleFor(ln.role, p.typ)
	}

	node := &Node{
		ID:          p.id,
		Title:       title,
		Description: g.describe(parent, p, ln),
		Type:        p.typ,
		Role:        role,
		Children:    []*Node{},
	}

	g.expand(node, p.depth, p.scope, ln, rng)

	if p.typ == types.NodeTypeTask {
		node.AcceptanceCriteria = taskCriteria(node, parent, ln, rng)
	}
	if allAtomic(node.Children) {
		node.Effort = g.effortBand(p.scope)
	}

	return node
}

func (g *generator) atomic(parent *Node, p placement, ln lineage, rng *rand.Rand) *Node {
	mins := g.atomicMinutes(p.scope)
	phrase := ln.phraseFor(types.NodeTypeAtomic, p.slot, 0)

	node := &Node{
		ID:          p.id,
		Title:       fmt.Sprintf("Step %d: %s", p.index, phrase),
		Description: fmt.Sprintf("Single-sitting step toward \"%s\". Sized for one %s model run of about %d minutes with no outside clarification.", parent.Title, ModelTargetSmall, mins),
		Type:        types.NodeTypeAtomic,
		Role:        roleFor(ln.role, types.NodeTypeAtomic),
		Effort:      fmt.Sprintf("%dm", mins),
		ModelTarget: ModelTargetSmall,
		Children:    []*Node{},
	}
	node.AcceptanceCriteria = atomicCriteria(node, parent, phrase, mins, ln, rng)

	return node
}

func (g *generator) describe(parent *Node, p placement, ln lineage) string {
	hours := formatHours(p.scope)
	switch p.typ {
	case types.NodeTypeProgram:
		if ln.qa {
			return fmt.Sprintf("Independent verification of everything \"%s\" delivers. About %s of checking.", parent.Title, hours)
		}
		return fmt.Sprintf("A %s stream inside \"%s\", led by the %s. About %s of work.", ln.phraseFor(p.typ, p.slot, 0), parent.Title, roleFor(ln.role, p.typ), hours)
	case types.NodeTypeProject:
		return fmt.Sprintf("Delivers the %s part of \"%s\". Estimated at %s.", strings.ToLower(ln.phraseFor(p.typ, p.slot, 0)), parent.Title, hours)
	default:
		return fmt.Sprintf("Concrete piece of \"%s\" owned by the %s. About %s, split into atomic steps.", parent.Title, roleFor(ln.role, p.typ), hours)
	}
}

// atomicMinutes rounds the scope to 5 minutes, capped by the atomic target
func (g *generator) atomicMinutes(scope float64) int {
	mins := math.Min(scope, float64(g.opts.AtomicTargetMins))
	rounded := int(math.Round(mins/5) * 5)
	if rounded > g.opts.AtomicTargetMins {
		rounded -= 5
	}
	if rounded < 5 {
		rounded = 5
	}
	return rounded
}

// effortBand maps the scope of a leaf-adjacent node to a coarse size
func (g *generator) effortBand(scope float64) string {
	steps := scope / float64(g.opts.AtomicTargetMins)
	switch {
	case steps <= 3:
		return "small"
	case steps <= 8:
		return "medium"
	default:
		return "large"
	}
}

func allAtomic(children []*Node) bool {
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if c.Type != types.NodeTypeAtomic {
			return false
		}
	}
	return true
}

func taskCriteria(node, parent *Node, ln lineage, rng *rand.Rand) []string {
	criteria := []string{
		"Every child step is complete and individually accepted",
		fmt.Sprintf("The result can be demonstrated to the %s", parent.Role),
	}
	if ln.qa {
		criteria = append(criteria, "Each failure found is logged with reproduction steps")
	} else if rng.IntN(2) == 0 {
		criteria = append(criteria, fmt.Sprintf("Known risks for \"%s\" are written down", node.Title))
	}
	return criteria
}

var outputCriteria = []string{
	"Output for \"%s\" exists as one reviewable artifact",
	"\"%s\" is delivered as a single self-contained change or document",
}

var timeCriteria = []string{
	"Finished within %d minutes of focused work",
	"Needs no more than %d minutes and no external clarification",
}

func atomicCriteria(node, parent *Node, phrase string, mins int, ln lineage, rng *rand.Rand) []string {
	criteria := []string{
		fmt.Sprintf(outputCriteria[rng.IntN(len(outputCriteria))], phrase),
		fmt.Sprintf(timeCriteria[rng.IntN(len(timeCriteria))], mins),
		fmt.Sprintf("A %s reviewer can check the result against \"%s\"", parent.Role, parent.Title),
	}
	if ln.qa {
		criteria = append(criteria, "Pass or fail evidence is recorded for every check")
	} else if rng.IntN(2) == 0 {
		criteria = append(criteria, "Open questions are listed explicitly instead of guessed")
	}
	return criteria
}

// titleFromIdea collapses whitespace and truncates long ideas
func titleFromIdea(idea string) string {
	title := strings.Join(strings.Fields(idea), " ")
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return strings.TrimSpace(string(runes[:maxTitleRunes-3])) + "..."
}

func formatHours(mins float64) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", int(math.Round(mins)))
	}
	return fmt.Sprintf("%.1fh", mins/60)
}
