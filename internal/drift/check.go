// Package drift detects when a saved plan no longer matches what the
// generator produces for the same idea and options.
package drift

import (
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// Check compares the saved plan at path with its regeneration. Both trees
// are re-encoded before diffing so formatting differences in the file do
// not count as drift.
func Check(path string, saved, regenerated *types.Node) (*Report, error) {
	have, err := plan.Marshal(saved)
	if err != nil {
		return nil, err
	}
	want, err := plan.Marshal(regenerated)
	if err != nil {
		return nil, err
	}

	return GenerateReport(path, DetectPlanDrift(saved, regenerated), UnifiedDiff(path, string(have), string(want))), nil
}
