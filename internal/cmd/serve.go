package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agentplan/internal/health"
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/internal/server"
	"github.com/felixgeelhaar/agentplan/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var noMetrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner page and POST /api/plan",
		Long: `Start an HTTP server with the planner page, the plan API and
Kubernetes-style health endpoints:

  /                page with the idea form, plan tree and JSON export
  POST /api/plan   {"idea": "...", "options": {...}} -> {"plan": {...}}
  /health/live     liveness probe
  /health/ready    readiness probe (fails while draining)
  /health/startup  startup probe
  /healthz         readiness, for load balancers that expect it
  /metrics         Prometheus metrics
  /openapi.yaml    API contract

The server drains in-flight requests on SIGTERM or SIGINT.`,
		Example: `  agentplan serve
  agentplan serve --addr :9090
  AGENTPLAN_CACHE_TTL=0 agentplan serve`,
		Args: cobra.NoArgs,
		RunE: a.instrument("serve", func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context(), cmd, !noMetrics)
		}),
	}

	fs := cmd.Flags()
	fs.String("addr", "", "listen address (default from server.addr, :8080)")
	fs.Duration("cache-ttl", 0, "plan response cache TTL, 0 disables (default from cache.ttl, 10m)")
	fs.BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	_ = a.v.BindPFlag("server.addr", fs.Lookup("addr"))
	_ = a.v.BindPFlag("cache.ttl", fs.Lookup("cache-ttl"))

	return cmd
}

func (a *app) runServe(ctx context.Context, cmd *cobra.Command, withMetrics bool) error {
	cfg := a.cfg
	info := version.GetInfo()

	probes := health.NewProbeManager(info.Version)
	probes.AddChecker(health.NewGeneratorChecker())

	opts := []server.Option{server.WithLogger(a.logger)}
	if withMetrics && a.metrics != nil {
		opts = append(opts, server.WithMetrics(a.metrics, prometheus.DefaultGatherer))
	}

	srv := server.NewServer(probes, plan.Generate, server.Config{
		Address:         cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		Defaults:        cfg.Plan.Normalize(),
		CacheTTL:        cfg.Cache.TTL,
		CacheCleanup:    cfg.Cache.CleanupInterval,
		Tracing:         cfg.Telemetry.Enabled,
	}, opts...)

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "agentplan %s listening on http://%s\n", info.Version, displayAddr(listener.Addr()))
	a.logger.Info("server started",
		"addr", listener.Addr().String(),
		"cache_ttl", cfg.Cache.TTL.String(),
		"tracing", cfg.Telemetry.Enabled)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serverErr:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		a.logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		<-serverErr
		fmt.Fprintln(cmd.OutOrStdout(), "Server stopped gracefully")
		return nil
	}
}

// displayAddr turns an unspecified host into localhost for the banner
func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return addr.String()
	}
	return fmt.Sprintf("localhost:%d", tcp.Port)
}
