package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agentplan/internal/tui"
)

func newViewCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "view <plan.json|->",
		Short: "Browse a saved plan as a collapsible tree",
		Long: `Open a saved plan in an interactive, collapsible tree. Nodes above
depth 2 start expanded. Use - to read the plan from stdin.

Without a terminal, or with --plain, the whole tree is printed as an
indented outline instead.`,
		Args: cobra.ExactArgs(1),
		RunE: a.instrument("view", func(cmd *cobra.Command, args []string) error {
			root, err := loadPlan(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if plain || !tui.ShouldPrompt() {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderOutline(root))
				return nil
			}
			return tui.RunOutline(root)
		}),
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print a plain outline instead of the interactive viewer")
	return cmd
}
