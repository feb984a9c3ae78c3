package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/internal/metrics"
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/internal/telemetry"
	"github.com/felixgeelhaar/agentplan/internal/tui"
	"github.com/felixgeelhaar/agentplan/internal/version"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/client"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

type generateFlags struct {
	options     optionFlags
	format      string
	out         string
	force       bool
	interactive bool
	view        bool
	remote      string
}

func newGenerateCmd(a *app) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <idea...>",
		Short: "Generate a plan hierarchy from an idea",
		Long: `Generate a deterministic plan hierarchy from an idea.

The plan is written to stdout as JSON (the same document the web page
exports) unless --out is given. Options not set by flags come from the
configuration file, then the built-in defaults. Out-of-range values are
clamped, never rejected.`,
		Example: `  agentplan generate "Build a recipe recommender"
  agentplan generate --departments 4 --depth 6 --qa=false -o plan.json "Open a bakery"
  agentplan generate --format outline "Launch a podcast"
  agentplan generate --interactive
  agentplan generate --remote http://localhost:8080 "Build a recipe recommender"`,
		RunE: a.instrument("generate", func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args, f)
		}),
	}

	fs := cmd.Flags()
	f.options.register(fs)
	fs.StringVarP(&f.format, "format", "f", formatJSON, "output format: json, yaml or outline")
	fs.StringVarP(&f.out, "out", "o", "", "write the plan to a file instead of stdout")
	fs.BoolVar(&f.force, "force", false, "overwrite --out if it exists")
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "prompt for the idea and options")
	fs.BoolVar(&f.view, "view", false, "open the plan in the interactive viewer after generating")
	fs.StringVar(&f.remote, "remote", "", "generate with an agentplan server at this base URL")

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, args []string, f *generateFlags) error {
	ctx := cmd.Context()
	idea := ideaFromArgs(args)
	opts := f.options.resolve(cmd.Flags(), a.cfg.Plan)

	if f.interactive {
		if !tui.ShouldPrompt() {
			return errors.New(errors.ErrCodeInvalidInput, "interactive mode needs a terminal").
				WithSuggestion("Pass the idea as an argument instead")
		}
		req, err := tui.PromptPlanRequest(idea, opts)
		if err != nil {
			return err
		}
		idea, opts = req.Idea, req.Options
	}
	if idea == "" {
		return errors.NewInvalidInputError()
	}

	var root *types.Node
	var err error
	if f.remote != "" {
		root, err = a.generateRemote(ctx, f.remote, idea, opts)
	} else {
		root, err = a.generateLocal(ctx, idea, opts)
	}
	if err != nil {
		return err
	}

	data, err := encodePlan(root, f.format)
	if err != nil {
		return err
	}
	data = withNewline(data)

	if f.out == "" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
	} else {
		overwrite := f.force
		if !overwrite && fileExists(f.out) && tui.ShouldPrompt() {
			if overwrite, err = tui.PromptForConfirmation("Overwrite "+f.out+"?", false); err != nil {
				return err
			}
		}
		if err := writeFile(f.out, data, overwrite); err != nil {
			return err
		}
		stats := plan.Summarize(root)
		cmd.PrintErrf("Wrote %s: %d nodes, %d atomic steps\n", f.out, stats.Nodes, stats.ByType[types.NodeTypeAtomic])
	}

	a.logger.WithContext(ctx).Info("plan generated",
		"nodes", plan.Summarize(root).Nodes,
		"departments", opts.DepartmentsCount,
		"depth", opts.Depth,
		"remote", f.remote != "")

	if f.view {
		if !tui.ShouldPrompt() {
			cmd.PrintErrln("Skipping --view: not a terminal")
			return nil
		}
		return tui.RunOutline(root)
	}
	return nil
}

// generateLocal runs the generator in-process with a span and metrics
func (a *app) generateLocal(ctx context.Context, idea string, opts types.Options) (*types.Node, error) {
	_, span := telemetry.StartGenerateSpan(ctx, "cli", opts)
	defer span.End()

	start := time.Now()
	root, err := plan.Generate(idea, opts)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.RecordError(span, err)
		a.recordGeneration(elapsed, nil, err)
		return nil, err
	}

	stats := plan.Summarize(root)
	telemetry.RecordSuccess(span, attribute.Int("plan.nodes", stats.Nodes))
	a.recordGeneration(elapsed, &stats, nil)
	return root, nil
}

// generateRemote asks a server for the plan and checks it against the
// requested options before trusting it.
func (a *app) generateRemote(ctx context.Context, baseURL, idea string, opts types.Options) (*types.Node, error) {
	c := client.NewWithConfig(baseURL, &client.Config{UserAgent: version.GetInfo().UserAgent()})
	root, err := c.Generate(ctx, idea, types.PatchFrom(opts))
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(root, opts); err != nil {
		return nil, planInvalid(err)
	}
	return root, nil
}

func (a *app) recordGeneration(d time.Duration, stats *plan.Stats, err error) {
	if a.metrics == nil {
		return
	}
	var shape metrics.PlanShape
	if stats != nil {
		shape.MaxDepth = stats.MaxDepth
		shape.ByType = make(map[string]int, len(stats.ByType))
		for t, n := range stats.ByType {
			shape.ByType[t.String()] = n
		}
	}
	a.metrics.RecordGeneration("cli", d, shape, err)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
