package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/agentplan/internal/config"
	"github.com/felixgeelhaar/agentplan/internal/log"
	"github.com/felixgeelhaar/agentplan/internal/metrics"
	"github.com/felixgeelhaar/agentplan/internal/telemetry"
	"github.com/felixgeelhaar/agentplan/internal/version"
)

// setupObservability configures logging, metrics and optional tracing.
// It returns a cleanup function that flushes spans and closes log files.
func (a *app) setupObservability(ctx context.Context) func() {
	a.logger = newLogger(a.cfg.Logging)
	log.SetDefaultLogger(a.logger)
	a.metrics = metrics.InitDefault()
	telemetryCleanup := setupTelemetry(ctx, a.cfg.Telemetry, a.logger)

	return func() {
		telemetryCleanup()
		if err := a.logger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing log file: %v\n", err)
		}
	}
}

func newLogger(cfg config.LoggingConfig) *log.Logger {
	rotation := log.DefaultRotation()
	if cfg.MaxSizeMB > 0 {
		rotation.MaxSizeMB = cfg.MaxSizeMB
	}
	if cfg.MaxBackups > 0 {
		rotation.MaxBackups = cfg.MaxBackups
	}
	if cfg.MaxAgeDays > 0 {
		rotation.MaxAgeDays = cfg.MaxAgeDays
	}

	return log.New(log.Config{
		Level:          log.ParseLevel(cfg.Level),
		Format:         log.ParseFormat(cfg.Format),
		Output:         os.Stderr,
		FilePath:       cfg.File,
		Rotation:       rotation,
		ServiceName:    "agentplan",
		ServiceVersion: version.GetInfo().Version,
	})
}

func setupTelemetry(ctx context.Context, cfg config.TelemetryConfig, logger *log.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	telemCfg := telemetry.DefaultConfig()
	telemCfg.ServiceVersion = version.GetInfo().Version
	telemCfg.Environment = telemetryEnvironment()
	telemCfg.Enabled = true
	telemCfg.Endpoint = cfg.Endpoint
	telemCfg.SampleRate = cfg.SampleRate

	shutdown, err := telemetry.InitProvider(ctx, telemCfg)
	if err != nil {
		logger.Warn("Failed to initialize telemetry", "error", err)
		return func() {}
	}

	logger.Debug("Telemetry enabled",
		"endpoint", telemCfg.Endpoint,
		"sample_rate", telemCfg.SampleRate,
	)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush telemetry", "error", err)
		}
	}
}

func telemetryEnvironment() string {
	if env := os.Getenv("AGENTPLAN_ENV"); env != "" {
		return env
	}
	return "cli"
}
