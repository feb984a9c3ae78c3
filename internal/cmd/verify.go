package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agentplan/internal/drift"
	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/internal/version"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		options optionFlags
		idea    string
		format  string
		sarif   string
	)

	cmd := &cobra.Command{
		Use:   "verify <plan.json>",
		Short: "Check that a saved plan still matches its regeneration",
		Long: `Regenerate a saved plan from its idea and options and report any drift:
hand edits, or plans produced by a different generator version.

The idea is read from the plan's root description unless --idea is set.
The department count and QA setting are read from the plan; breadth,
depth and atomic minutes come from the flags or the configuration.

Exits with status 4 when drift is found.`,
		Args: cobra.ExactArgs(1),
		RunE: a.instrument("verify", func(cmd *cobra.Command, args []string) error {
			path := args[0]
			saved, err := loadPlan(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if idea == "" {
				var ok bool
				if idea, ok = plan.IdeaOf(saved); !ok {
					return errors.New(errors.ErrCodeInvalidInput, "the plan does not record its idea").
						WithSuggestion("Pass the idea with --idea")
				}
			}
			opts := options.resolve(cmd.Flags(), plan.InferOptions(saved, a.cfg.Plan))

			regenerated, err := a.generateLocal(cmd.Context(), idea, opts)
			if err != nil {
				return err
			}

			report, err := drift.Check(path, saved, regenerated)
			if err != nil {
				return err
			}
			if a.metrics != nil {
				a.metrics.RecordDrift(!report.IsClean())
			}

			if sarif != "" {
				if err := drift.SaveSARIF(report.ToSARIF(version.GetInfo().Version), sarif); err != nil {
					return err
				}
			}

			switch format {
			case formatJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			case "text":
				printReport(cmd, report)
			default:
				return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown format %q", format)).
					WithSuggestion("Use --format text or json")
			}

			if !report.IsClean() {
				return errors.NewPlanDriftError(path)
			}
			return nil
		}),
	}

	options.register(cmd.Flags())
	cmd.Flags().StringVar(&idea, "idea", "", "idea the plan was generated from (default: read from the plan)")
	cmd.Flags().StringVar(&format, "format", "text", "report format: text or json")
	cmd.Flags().StringVar(&sarif, "sarif", "", "also write findings as SARIF to this file")
	return cmd
}

func printReport(cmd *cobra.Command, report *drift.Report) {
	if report.IsClean() {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s matches its regeneration\n", report.Path)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✗ %s has drifted: %d errors, %d warnings\n\n",
		report.Path, report.Summary.Errors, report.Summary.Warnings)
	for _, f := range report.Findings {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s\n", f.Code, f.Message)
	}
	if report.Diff != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s", report.Diff)
	}
}
