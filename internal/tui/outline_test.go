package tui

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

func generate(t *testing.T) *types.Node {
	t.Helper()
	root, err := plan.Generate("Build a recipe recommender", types.Options{
		Breadth:          2,
		Depth:            4,
		DepartmentsCount: 3,
		IncludeQA:        true,
		AtomicTargetMins: 25,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return root
}

func TestRenderOutline(t *testing.T) {
	root := generate(t)
	out := RenderOutline(root)
	stats := plan.Summarize(root)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// summary, blank line, one line per node
	if len(lines) != stats.Nodes+2 {
		t.Fatalf("got %d lines, want %d", len(lines), stats.Nodes+2)
	}
	if !strings.HasPrefix(lines[2], "- [root] ") {
		t.Errorf("first node line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "  - [department] ") {
		t.Errorf("second node line = %q", lines[3])
	}
	if !strings.Contains(out, "@7-8B") {
		t.Error("outline does not show atomic model targets")
	}
	if !strings.Contains(lines[0], "3 departments") {
		t.Errorf("summary = %q", lines[0])
	}
}

func TestRenderOutline_Nil(t *testing.T) {
	if got := RenderOutline(nil); got != "" {
		t.Errorf("RenderOutline(nil) = %q, want empty", got)
	}
}

func TestHours(t *testing.T) {
	tests := map[int]string{
		0:   "0m",
		45:  "45m",
		60:  "1h",
		90:  "1.5h",
		600: "10h",
	}
	for mins, want := range tests {
		if got := hours(mins); got != want {
			t.Errorf("hours(%d) = %q, want %q", mins, got, want)
		}
	}
}
