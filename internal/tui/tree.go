package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// defaultOpenDepth is the depth above which nodes start expanded
const defaultOpenDepth = 2

// reservedLines is the vertical space taken by everything but the rows
const reservedLines = 16

// outlineKeys defines the viewer's keyboard shortcuts
type outlineKeys struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Quit        key.Binding
}

var defaultOutlineKeys = outlineKeys{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
	Expand:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
	Collapse:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
	ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
	CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
	Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap
func (k outlineKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.ExpandAll, k.CollapseAll, k.Quit}
}

// FullHelp implements help.KeyMap
func (k outlineKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Toggle, k.Expand, k.Collapse},
		{k.ExpandAll, k.CollapseAll, k.Quit},
	}
}

// row is one visible line of the outline
type row struct {
	node  *types.Node
	depth int
}

// OutlineModel is a collapsible plan tree. Nodes above depth 2 start
// expanded, everything deeper starts collapsed.
type OutlineModel struct {
	root     *types.Node
	stats    plan.Stats
	expanded map[types.NodeID]bool
	rows     []row
	cursor   int
	offset   int
	width    int
	height   int
	keys     outlineKeys
	help     help.Model
	quitting bool
}

// NewOutlineModel creates a viewer for root
func NewOutlineModel(root *types.Node) *OutlineModel {
	m := &OutlineModel{
		root:     root,
		stats:    plan.Summarize(root),
		expanded: make(map[types.NodeID]bool),
		keys:     defaultOutlineKeys,
		help:     help.New(),
	}
	root.Walk(func(n *types.Node, depth int) bool {
		if depth < defaultOpenDepth && !n.IsLeaf() {
			m.expanded[n.ID] = true
		}
		return depth < defaultOpenDepth
	})
	m.refresh()
	return m
}

// refresh rebuilds the visible rows from the expansion state
func (m *OutlineModel) refresh() {
	m.rows = m.rows[:0]
	m.root.Walk(func(n *types.Node, depth int) bool {
		m.rows = append(m.rows, row{node: n, depth: depth})
		return m.expanded[n.ID]
	})
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.scroll()
}

// Selected returns the node under the cursor
func (m *OutlineModel) Selected() *types.Node {
	return m.rows[m.cursor].node
}

// Visible returns the number of rows currently shown
func (m *OutlineModel) Visible() int {
	return len(m.rows)
}

// Init implements tea.Model
func (m *OutlineModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *OutlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.move(1)
		case key.Matches(msg, m.keys.Top):
			m.move(-len(m.rows))
		case key.Matches(msg, m.keys.Bottom):
			m.move(len(m.rows))
		case key.Matches(msg, m.keys.Toggle):
			n := m.Selected()
			if !n.IsLeaf() {
				m.expanded[n.ID] = !m.expanded[n.ID]
				m.refresh()
			}
		case key.Matches(msg, m.keys.Expand):
			n := m.Selected()
			if !n.IsLeaf() && !m.expanded[n.ID] {
				m.expanded[n.ID] = true
				m.refresh()
			}
		case key.Matches(msg, m.keys.Collapse):
			m.collapse()
		case key.Matches(msg, m.keys.ExpandAll):
			m.root.Walk(func(n *types.Node, _ int) bool {
				if !n.IsLeaf() {
					m.expanded[n.ID] = true
				}
				return true
			})
			m.refresh()
		case key.Matches(msg, m.keys.CollapseAll):
			clear(m.expanded)
			m.cursor = 0
			m.refresh()
		}
	}
	return m, nil
}

func (m *OutlineModel) move(delta int) {
	m.cursor = max(0, min(len(m.rows)-1, m.cursor+delta))
	m.scroll()
}

// collapse closes the selected node, or jumps to its parent when it is
// already closed or a leaf.
func (m *OutlineModel) collapse() {
	n := m.Selected()
	if m.expanded[n.ID] {
		delete(m.expanded, n.ID)
		m.refresh()
		return
	}
	depth := m.rows[m.cursor].depth
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < depth {
			m.cursor = i
			break
		}
	}
	m.scroll()
}

// pageSize is the number of rows that fit; 0 means unbounded
func (m *OutlineModel) pageSize() int {
	if m.height == 0 {
		return 0
	}
	return max(3, m.height-reservedLines)
}

// scroll keeps the cursor inside the visible window
func (m *OutlineModel) scroll() {
	size := m.pageSize()
	if size == 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+size {
		m.offset = m.cursor - size + 1
	}
}

// View implements tea.Model
func (m *OutlineModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.root.Title))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(summaryLine(m.stats)))
	b.WriteString("\n\n")

	end := len(m.rows)
	if size := m.pageSize(); size > 0 {
		end = min(end, m.offset+size)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *OutlineModel) renderRow(i int) string {
	r := m.rows[i]
	n := r.node

	marker := "•"
	if !n.IsLeaf() {
		marker = "▸"
		if m.expanded[n.ID] {
			marker = "▾"
		}
	}

	cursor := "  "
	title := n.Title
	if i == m.cursor {
		cursor = "→ "
		title = selectedItemStyle.Render(title)
	}

	role := roleStyle.Render(n.Role)
	if plan.IsQARole(n.Role) {
		role = qaStyle.Render(n.Role)
	}

	line := fmt.Sprintf("%s%s%s %s %s %s",
		cursor, strings.Repeat("  ", r.depth), marker, typeBadge(n.Type), title, role)
	if n.Effort != "" {
		line += " " + roleStyle.Render(n.Effort)
	}
	return line
}

func typeBadge(t types.NodeType) string {
	label := fmt.Sprintf("%-10s", t)
	if style, ok := typeStyles[t.String()]; ok {
		return style.Render(label)
	}
	return label
}

func (m *OutlineModel) renderDetail() string {
	n := m.Selected()

	var b strings.Builder
	field := func(k, v string) {
		if v == "" {
			return
		}
		b.WriteString(detailKeyStyle.Render(fmt.Sprintf("%-12s", k)))
		b.WriteString(detailValueStyle.Render(v))
		b.WriteString("\n")
	}
	field("ID", n.ID.String())
	field("Role", n.Role)
	field("Effort", n.Effort)
	field("Model", n.ModelTarget)
	field("Description", n.Description)
	if len(n.AcceptanceCriteria) > 0 {
		b.WriteString(detailKeyStyle.Render("Acceptance"))
		b.WriteString("\n")
		for _, c := range n.AcceptanceCriteria {
			b.WriteString(detailValueStyle.Render("  ✓ " + c))
			b.WriteString("\n")
		}
	}

	box := detailBoxStyle
	if m.width > 8 {
		box = box.Width(m.width - 6)
	}
	return box.Render(strings.TrimRight(b.String(), "\n"))
}

// RunOutline opens the interactive viewer on the alternate screen
func RunOutline(root *types.Node) error {
	if root == nil {
		return fmt.Errorf("no plan to view")
	}
	program := tea.NewProgram(NewOutlineModel(root), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running plan viewer: %w", err)
	}
	return nil
}
