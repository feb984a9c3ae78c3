package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/internal/server"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

type validateResult struct {
	Path    string         `json:"path"`
	Valid   bool           `json:"valid"`
	Options *types.Options `json:"options,omitempty"`
	Stats   plan.Stats     `json:"stats"`
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		options optionFlags
		strict  bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "validate <plan.json|->",
		Short: "Check a plan document against the plan schema and invariants",
		Long: `Validate a plan document in three steps:

  1. the JSON must match the PlanNode schema served at /openapi.yaml
  2. the tree must be well formed: unique IDs, valid parent/child types,
     atomic leaves with a model target and acceptance criteria
  3. with --strict or any option flag, the tree must also respect the
     option bounds: department count, depth, breadth and QA placement

Options for step 3 come from the flags, then the configuration, then the
department count and QA presence recorded in the plan itself.`,
		Args: cobra.ExactArgs(1),
		RunE: a.instrument("validate", func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := readPlanInput(path, cmd.InOrStdin())
			if err != nil {
				return errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read file: %s", path), err)
			}

			if err := server.ValidatePlanJSON(data); err != nil {
				return planInvalid(err)
			}
			root, err := plan.Decode(data)
			if err != nil {
				return err
			}
			if err := plan.ValidateStructure(root); err != nil {
				return planInvalid(err)
			}

			result := validateResult{Path: path, Valid: true, Stats: plan.Summarize(root)}
			if strict || options.anyChanged(cmd.Flags()) {
				base := plan.InferOptions(root, a.cfg.Plan)
				opts := options.resolve(cmd.Flags(), base)
				if err := plan.Validate(root, opts); err != nil {
					return planInvalid(err)
				}
				result.Options = &opts
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is a valid plan: %d nodes, %d atomic steps, max depth %d\n",
				path, result.Stats.Nodes, result.Stats.ByType[types.NodeTypeAtomic], result.Stats.MaxDepth)
			return nil
		}),
	}

	options.register(cmd.Flags())
	cmd.Flags().BoolVar(&strict, "strict", false, "also check option bounds")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
