package cmd

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/internal/tui"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// Output formats
const (
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatOutline = "outline"
)

// encodePlan renders root in format
func encodePlan(root *types.Node, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		return plan.Marshal(root)
	case formatYAML:
		return plan.MarshalYAML(root)
	case formatOutline:
		return []byte(tui.RenderOutline(root)), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown format %q", format)).
			WithSuggestion("Use --format json, yaml or outline")
	}
}

// writeFile writes data to path, refusing to replace an existing file
// unless overwrite is set.
func writeFile(path string, data []byte, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("file already exists: %s", path), err).
				WithSuggestion("Pass --force to overwrite it")
		}
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write file: %s", path), err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write file: %s", path), err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write file: %s", path), err)
	}
	return nil
}

func planInvalid(err error) error {
	return errors.NewPlanInvalidError(err.Error())
}

func withNewline(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return append(data, '\n')
	}
	return data
}
