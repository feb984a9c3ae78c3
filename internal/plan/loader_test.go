package plan

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	root, err := Generate(recipeIdea, recipeOptions())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "agentic-plan.json")
	if err := Save(root, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(root, loaded) {
		t.Error("loaded plan differs from saved plan")
	}
}

func TestMarshal_Format(t *testing.T) {
	root, err := Generate("Compare <fast> & cheap models", recipeOptions())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	data, err := Marshal(root)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if bytes.HasSuffix(data, []byte("\n")) {
		t.Error("Marshal() output should not end with a newline")
	}
	if !bytes.HasPrefix(data, []byte("{\n  \"id\": \"root\",")) {
		t.Errorf("Marshal() output should use two-space indent, got %q", data[:30])
	}
	if !bytes.Contains(data, []byte("<fast> & cheap")) {
		t.Error("Marshal() should not HTML-escape titles")
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, data, "", "  "); err != nil {
		t.Fatalf("Marshal() produced invalid JSON: %v", err)
	}
}

func TestMarshal_LeafChildrenIsEmptyArray(t *testing.T) {
	data, err := Marshal(atomicNode("root-1"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"children": []`) {
		t.Errorf("leaf should encode children as [], got %s", data)
	}
}

func TestMarshalYAML(t *testing.T) {
	root, err := Generate(recipeIdea, recipeOptions())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	data, err := MarshalYAML(root)
	if err != nil {
		t.Fatalf("MarshalYAML() error = %v", err)
	}

	var decoded Node
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if decoded.Title != root.Title || len(decoded.Children) != len(root.Children) {
		t.Error("YAML export lost plan content")
	}
	if !strings.Contains(string(data), "modelTarget: 7-8B") {
		t.Error("YAML export should use camelCase keys")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		missing bool
		code    errors.ErrorCode
	}{
		{name: "missing file", missing: true, code: errors.ErrCodeFileNotFound},
		{name: "malformed json", content: `{"id": "root",`, code: errors.ErrCodeFileUnmarshal},
		{name: "wrong root type", content: `{"id":"root","title":"x","description":"","type":"task","role":"r","children":[]}`, code: errors.ErrCodePlanInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".json")
			if !tt.missing {
				if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
					t.Fatalf("WriteFile() error = %v", err)
				}
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if code := errors.CodeOf(err); code != tt.code {
				t.Errorf("Load() error code = %s, want %s (%v)", code, tt.code, err)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	root := smallTree()
	stats := Summarize(root)

	if stats.Nodes != 6 {
		t.Errorf("Nodes = %d, want 6", stats.Nodes)
	}
	if stats.ByType[types.NodeTypeAtomic] != 3 {
		t.Errorf("atomic = %d, want 3", stats.ByType[types.NodeTypeAtomic])
	}
	if stats.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", stats.MaxDepth)
	}
	if stats.Leaves != 3 {
		t.Errorf("Leaves = %d, want 3", stats.Leaves)
	}
	if stats.AtomicMinutes != 60 {
		t.Errorf("AtomicMinutes = %d, want 60", stats.AtomicMinutes)
	}
	if stats.QANodes != 0 {
		t.Errorf("QANodes = %d, want 0", stats.QANodes)
	}

	if empty := Summarize(nil); empty.Nodes != 0 {
		t.Errorf("Summarize(nil).Nodes = %d, want 0", empty.Nodes)
	}
}
