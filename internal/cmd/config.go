package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/agentplan/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the agentplan configuration",
	}

	view := &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration as YAML",
		Long: `Print the effective configuration after merging the built-in defaults,
the config file, AGENTPLAN_* environment variables and flags.`,
		Args: cobra.NoArgs,
		RunE: a.instrument("config.view", func(cmd *cobra.Command, _ []string) error {
			data, err := settingsYAML(a.v)
			if err != nil {
				return err
			}
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", used)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# config file: none, using defaults")
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		}),
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintln(cmd.OutOrStdout(), used)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigFile())
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with every default",
		Args:  cobra.NoArgs,
		RunE: a.instrument("config.init", func(cmd *cobra.Command, _ []string) error {
			target := a.cfgFile
			if target == "" {
				target = config.ConfigFile()
			}

			defaults := viper.New()
			config.SetDefaults(defaults)
			data, err := settingsYAML(defaults)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := writeFile(target, data, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
			return nil
		}),
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	cmd.AddCommand(view, path, initCmd)
	return cmd
}

// settingsYAML renders all settings of v, with durations as strings so the
// output can be read back as a config file.
func settingsYAML(v *viper.Viper) ([]byte, error) {
	data, err := yaml.Marshal(humanize(v.AllSettings()))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func humanize(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		switch val := v.(type) {
		case map[string]any:
			out[k] = humanize(val)
		case time.Duration:
			out[k] = val.String()
		default:
			out[k] = v
		}
	}
	return out
}
