// Package cmd implements the agentplan command line.
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/agentplan/internal/config"
	"github.com/felixgeelhaar/agentplan/internal/log"
	"github.com/felixgeelhaar/agentplan/internal/metrics"
	"github.com/felixgeelhaar/agentplan/internal/telemetry"
)

// app is the state shared by every command of one invocation
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *log.Logger
	metrics *metrics.Metrics
	cleanup func()
}

// NewRootCmd builds the command tree with fresh flag state
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{
		v:       viper.New(),
		logger:  log.Discard(),
		cleanup: func() {},
	}

	root := &cobra.Command{
		Use:   "agentplan",
		Short: "Deterministic hierarchical plan generator",
		Long: `agentplan expands an idea into a deterministic plan hierarchy:
departments, programs, projects and tasks down to atomic steps sized for a
7-8B model to execute. The same idea and options always yield the same plan.

Configuration is read from $XDG_CONFIG_HOME/agentplan/config.yaml (or
./config.yaml) and AGENTPLAN_* environment variables, e.g.
AGENTPLAN_PLAN_DEPTH=6 or AGENTPLAN_SERVER_ADDR=:9090.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/agentplan/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json or text")
	flags.String("log-file", "", "write logs to a rotating file instead of stderr")
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("logging.file", flags.Lookup("log-file"))

	root.AddCommand(
		newGenerateCmd(a),
		newViewCmd(a),
		newValidateCmd(a),
		newVerifyCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return root, a
}

// init loads configuration and sets up logging, metrics and tracing
func (a *app) init(ctx context.Context) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.cleanup = a.setupObservability(ctx)
	return nil
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which main cancels on
// SIGINT and SIGTERM.
func ExecuteContext(ctx context.Context) error {
	root, a := newRootCmd()
	defer func() { a.cleanup() }()
	return root.ExecuteContext(ctx)
}

// instrument wraps a command body with a span, a command metric and an
// error log entry.
func (a *app) instrument(name string, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, span := telemetry.StartCommandSpan(cmd.Context(), name)
		defer span.End()
		cmd.SetContext(ctx)

		start := time.Now()
		err := run(cmd, args)
		elapsed := time.Since(start)

		if a.metrics != nil {
			a.metrics.RecordCommand(name, elapsed, err)
		}
		if err != nil {
			telemetry.RecordError(span, err)
			a.logger.LogError(ctx, "command failed", err)
		} else {
			telemetry.RecordSuccess(span)
		}
		telemetry.RecordDuration(span, "command", elapsed)
		return err
	}
}
