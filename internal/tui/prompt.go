package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// PlanRequest is the idea and options collected by the plan form
type PlanRequest struct {
	Idea    string
	Options types.Options
}

// NewPlanForm builds the form that fills req. Fields start from req's
// current values.
func NewPlanForm(req *PlanRequest) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Idea").
				Description("What should the plan accomplish?").
				Placeholder("Build a recipe recommender").
				CharLimit(500).
				Validate(validateIdea).
				Value(&req.Idea),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Departments").
				Options(intOptions(types.MinDepartments, types.MaxDepartments, 1)...).
				Value(&req.Options.DepartmentsCount),
			huh.NewSelect[int]().
				Title("Depth").
				Description("Levels from the root down to atomic steps").
				Options(intOptions(types.MinDepth, types.MaxDepth, 1)...).
				Value(&req.Options.Depth),
			huh.NewSelect[int]().
				Title("Breadth").
				Description("Maximum children per node").
				Options(intOptions(types.MinBreadth, types.MaxBreadth, 1)...).
				Value(&req.Options.Breadth),
			huh.NewSelect[int]().
				Title("Atomic step minutes").
				Options(intOptions(types.MinAtomicTargetMins, types.MaxAtomicTargetMins, 5)...).
				Value(&req.Options.AtomicTargetMins),
			huh.NewConfirm().
				Title("Add a QA program to each department?").
				Value(&req.Options.IncludeQA),
		),
	)
}

// PromptPlanRequest asks for an idea and plan options, starting from the
// given values. Out-of-range defaults are clamped first so every select
// has a matching option.
func PromptPlanRequest(idea string, defaults types.Options) (PlanRequest, error) {
	req := PlanRequest{Idea: idea, Options: defaults.Normalize()}
	if err := NewPlanForm(&req).Run(); err != nil {
		return PlanRequest{}, fmt.Errorf("prompt failed: %w", err)
	}
	req.Idea = strings.TrimSpace(req.Idea)
	return req, nil
}

func validateIdea(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("idea is required")
	}
	return nil
}

// intOptions lists lo..hi inclusive in step increments
func intOptions(lo, hi, step int) []huh.Option[int] {
	var opts []huh.Option[int]
	for v := lo; v <= hi; v += step {
		opts = append(opts, huh.NewOption(strconv.Itoa(v), v))
	}
	return opts
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Value(&confirmed),
	))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// IsInteractive reports whether stdin is a terminal. Pipes, files and
// character devices such as /dev/null are not.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ShouldPrompt returns true if prompts should be shown. Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	// Check common CI environment variables
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
