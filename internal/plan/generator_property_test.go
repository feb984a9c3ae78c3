package plan

import (
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// genIdea generates non-blank ideas with surrounding noise
func genIdea() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		core := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ,.'&-]{0,60}`).Draw(t, "core")
		pad := rapid.SampledFrom([]string{"", " ", "\t", "\n  "}).Draw(t, "pad")
		return pad + core + pad
	})
}

// genOptions generates options both inside and outside the valid bounds
func genOptions() *rapid.Generator[Options] {
	return rapid.Custom(func(t *rapid.T) Options {
		return Options{
			Breadth:          rapid.IntRange(-1, 6).Draw(t, "breadth"),
			Depth:            rapid.IntRange(2, 8).Draw(t, "depth"),
			DepartmentsCount: rapid.IntRange(0, 12).Draw(t, "departments"),
			IncludeQA:        rapid.Bool().Draw(t, "qa"),
			AtomicTargetMins: rapid.IntRange(0, 90).Draw(t, "atomic_mins"),
		}
	})
}

// TestGenerate_Deterministic tests that identical inputs give identical trees
func TestGenerate_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idea := genIdea().Draw(t, "idea")
		opts := genOptions().Draw(t, "opts")

		a, err := Generate(idea, opts)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		b, err := Generate(idea, opts)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		if !reflect.DeepEqual(a, b) {
			t.Fatal("identical inputs produced different trees")
		}
	})
}

// TestGenerate_Bounds tests depth, breadth and department count against the
// clamped options
func TestGenerate_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idea := genIdea().Draw(t, "idea")
		opts := genOptions().Draw(t, "opts")
		norm := opts.Normalize()

		root, err := Generate(idea, opts)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		if len(root.Children) != norm.DepartmentsCount {
			t.Fatalf("departments = %d, want %d", len(root.Children), norm.DepartmentsCount)
		}

		root.Walk(func(n *Node, depth int) bool {
			if depth > norm.Depth {
				t.Fatalf("node %s at depth %d exceeds %d", n.ID, depth, norm.Depth)
			}
			if n.Type == types.NodeTypeRoot || n.IsLeaf() {
				return true
			}
			limit := norm.Breadth
			if n.Type == types.NodeTypeDepartment && norm.IncludeQA {
				limit++
			}
			if len(n.Children) < 2 || len(n.Children) > limit {
				t.Fatalf("node %s has %d children, want 2..%d", n.ID, len(n.Children), limit)
			}
			return true
		})
	})
}

// TestGenerate_AtomicLeaves tests that leaves are exactly the atomic nodes
// and carry the atomic contract
func TestGenerate_AtomicLeaves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root, err := Generate(genIdea().Draw(t, "idea"), genOptions().Draw(t, "opts"))
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		root.Walk(func(n *Node, _ int) bool {
			atomic := n.Type == types.NodeTypeAtomic
			if atomic != n.IsLeaf() {
				t.Fatalf("node %s: atomic=%v leaf=%v", n.ID, atomic, n.IsLeaf())
			}
			if atomic && (n.ModelTarget == "" || len(n.AcceptanceCriteria) == 0) {
				t.Fatalf("atomic node %s breaks the atomic contract", n.ID)
			}
			if n.Children == nil {
				t.Fatalf("node %s has nil children", n.ID)
			}
			return true
		})
	})
}

// TestGenerate_UniqueIDs tests that every node ID is unique and valid
func TestGenerate_UniqueIDs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root, err := Generate(genIdea().Draw(t, "idea"), genOptions().Draw(t, "opts"))
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		seen := make(map[types.NodeID]bool)
		root.Walk(func(n *Node, _ int) bool {
			if err := n.ID.Validate(); err != nil {
				t.Fatalf("invalid ID %q: %v", n.ID, err)
			}
			if seen[n.ID] {
				t.Fatalf("duplicate ID %q", n.ID)
			}
			seen[n.ID] = true
			return true
		})
	})
}

// TestGenerate_QAPresence tests QA injection per department and its absence
// when disabled
func TestGenerate_QAPresence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		opts := genOptions().Draw(t, "opts")
		root, err := Generate(genIdea().Draw(t, "idea"), opts)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		for _, dept := range root.Children {
			qa := 0
			for _, c := range dept.Children {
				if IsQARole(c.Role) {
					qa++
				}
			}
			want := 0
			if opts.IncludeQA {
				want = 1
			}
			if qa != want {
				t.Fatalf("department %s has %d QA children, want %d", dept.ID, qa, want)
			}
		}
		if !opts.IncludeQA && countQA(root) != 0 {
			t.Fatal("QA nodes present with QA injection off")
		}
	})
}

// TestGenerate_BlankIdeasRejected tests that whitespace-only ideas fail
func TestGenerate_BlankIdeasRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idea := rapid.StringMatching(`[ \t\n\r]{0,10}`).Draw(t, "idea")

		_, err := Generate(idea, genOptions().Draw(t, "opts"))
		if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Fatalf("Generate(%q) error = %v, want %s", idea, err, errors.ErrCodeInvalidInput)
		}
	})
}

// TestFingerprint_MatchesGeneration tests that equal fingerprints imply
// equal plans for whitespace and clamping variants of the same request
func TestFingerprint_MatchesGeneration(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idea := genIdea().Draw(t, "idea")
		opts := genOptions().Draw(t, "opts")

		f1, err := Fingerprint(idea, opts)
		if err != nil {
			t.Fatalf("Fingerprint() error = %v", err)
		}
		f2, err := Fingerprint(strings.TrimSpace(idea), opts.Normalize())
		if err != nil {
			t.Fatalf("Fingerprint() error = %v", err)
		}
		if f1 != f2 {
			t.Fatalf("fingerprints differ for equivalent requests: %s vs %s", f1, f2)
		}
	})
}
