package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// optionFlags are the plan option flags shared by generate, validate and
// verify. Only flags the user set override configuration.
type optionFlags struct {
	breadth     int
	depth       int
	departments int
	atomicMins  int
	qa          bool
}

func (f *optionFlags) register(fs *pflag.FlagSet) {
	d := types.DefaultOptions()
	fs.IntVar(&f.breadth, "breadth", d.Breadth,
		fmt.Sprintf("maximum children per node (%d-%d)", types.MinBreadth, types.MaxBreadth))
	fs.IntVar(&f.depth, "depth", d.Depth,
		fmt.Sprintf("levels from root to atomic steps (%d-%d)", types.MinDepth, types.MaxDepth))
	fs.IntVar(&f.departments, "departments", d.DepartmentsCount,
		fmt.Sprintf("number of departments (%d-%d)", types.MinDepartments, types.MaxDepartments))
	fs.IntVar(&f.atomicMins, "atomic-mins", d.AtomicTargetMins,
		fmt.Sprintf("target minutes per atomic step (%d-%d)", types.MinAtomicTargetMins, types.MaxAtomicTargetMins))
	fs.BoolVar(&f.qa, "qa", d.IncludeQA, "add a QA program to each department (--qa=false to omit)")
}

// patch returns the options the user set explicitly
func (f *optionFlags) patch(fs *pflag.FlagSet) *types.OptionsPatch {
	p := &types.OptionsPatch{}
	if fs.Changed("breadth") {
		p.Breadth = &f.breadth
	}
	if fs.Changed("depth") {
		p.Depth = &f.depth
	}
	if fs.Changed("departments") {
		p.DepartmentsCount = &f.departments
	}
	if fs.Changed("atomic-mins") {
		p.AtomicTargetMins = &f.atomicMins
	}
	if fs.Changed("qa") {
		p.IncludeQA = &f.qa
	}
	return p
}

// anyChanged reports whether any option flag was set
func (f *optionFlags) anyChanged(fs *pflag.FlagSet) bool {
	for _, name := range []string{"breadth", "depth", "departments", "atomic-mins", "qa"} {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

// resolve overlays the set flags on base and clamps the result
func (f *optionFlags) resolve(fs *pflag.FlagSet, base types.Options) types.Options {
	return f.patch(fs).Apply(base).Normalize()
}

// readPlanInput reads a plan document from path, or stdin for "-"
func readPlanInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadPlan reads and structurally checks a plan from path or stdin
func loadPlan(path string, stdin io.Reader) (*types.Node, error) {
	if path != "-" {
		return plan.Load(path)
	}
	data, err := readPlanInput(path, stdin)
	if err != nil {
		return nil, err
	}
	root, err := plan.Decode(data)
	if err != nil {
		return nil, err
	}
	if verr := plan.ValidateStructure(root); verr != nil {
		return nil, planInvalid(verr)
	}
	return root, nil
}

func ideaFromArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
