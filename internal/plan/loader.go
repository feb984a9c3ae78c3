package plan

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// Marshal encodes a plan with two-space indentation and no trailing
// newline, the same bytes the web page exports.
func Marshal(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalYAML encodes a plan as YAML
func MarshalYAML(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("marshal plan yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal plan yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads a plan from a JSON file and checks its structure
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read file: %s", path), err)
	}

	root, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	if verr := ValidateStructure(root); verr != nil {
		return nil, errors.NewPlanInvalidError(verr.Error())
	}

	return root, nil
}

// Decode parses plan JSON without validating it
func Decode(data []byte) (*Node, error) {
	return decode("<input>", data)
}

func decode(path string, data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.NewFileUnmarshalError(path, "json", err)
	}
	return &root, nil
}

// Save writes a plan to a JSON file
func Save(root *Node, path string) error {
	data, err := Marshal(root)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to encode plan", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write file: %s", path), err)
	}

	return nil
}

// Stats summarizes the shape of a plan tree
type Stats struct {
	Nodes         int                    `json:"nodes"`
	ByType        map[types.NodeType]int `json:"byType"`
	MaxDepth      int                    `json:"maxDepth"`
	Leaves        int                    `json:"leaves"`
	QANodes       int                    `json:"qaNodes"`
	AtomicMinutes int                    `json:"atomicMinutes"`
}

// Summarize walks a plan and counts its nodes
func Summarize(root *Node) Stats {
	s := Stats{ByType: make(map[types.NodeType]int)}
	if root == nil {
		return s
	}

	root.Walk(func(n *Node, depth int) bool {
		s.Nodes++
		s.ByType[n.Type]++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if n.IsLeaf() {
			s.Leaves++
		}
		if IsQARole(n.Role) {
			s.QANodes++
		}
		if n.Type == types.NodeTypeAtomic {
			var mins int
			if _, err := fmt.Sscanf(n.Effort, "%dm", &mins); err == nil {
				s.AtomicMinutes += mins
			}
		}
		return true
	})

	return s
}
