// Package server exposes the plan generator over HTTP: POST /api/plan,
// the embedded planner page, health probes, Prometheus metrics and the
// OpenAPI contract. Shutdown is graceful: readiness flips first, then
// in-flight requests drain.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/agentplan/internal/health"
	"github.com/felixgeelhaar/agentplan/internal/log"
	"github.com/felixgeelhaar/agentplan/internal/metrics"
	"github.com/felixgeelhaar/agentplan/internal/ui"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// GenerateFunc produces a plan tree; plan.Generate in production
type GenerateFunc func(idea string, opts types.Options) (*types.Node, error)

// Config holds server configuration. Zero durations take defaults.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration

	// MaxBodyBytes caps request bodies; defaults to 1 MiB
	MaxBodyBytes int64

	// Defaults fill option fields a request leaves out
	Defaults types.Options

	// CacheTTL enables the response cache when positive
	CacheTTL     time.Duration
	CacheCleanup time.Duration

	// Tracing wraps the handler with otelhttp
	Tracing bool
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the access and error logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics records HTTP, generation and cache metrics into m and serves
// gatherer at /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// Server serves the planner over HTTP
type Server struct {
	cfg          Config
	httpServer   *http.Server
	probeManager *health.ProbeManager
	generate     GenerateFunc
	cache        *PlanCache
	logger       *log.Logger
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	inShutdown   atomic.Bool
}

// NewServer wires routes and middleware. The response cache registers its
// own health checker on probes.
func NewServer(probes *health.ProbeManager, generate GenerateFunc, cfg Config, opts ...Option) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.Defaults == (types.Options{}) {
		cfg.Defaults = types.DefaultOptions()
	}

	s := &Server{
		cfg:          cfg,
		probeManager: probes,
		generate:     generate,
		cache:        NewPlanCache(cfg.CacheTTL, cfg.CacheCleanup),
		logger:       log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// a nil *PlanCache must not reach the checker as a non-nil interface
	var counter health.ItemCounter
	if s.cache != nil {
		counter = s.cache
	}
	probes.AddChecker(health.NewCacheChecker(counter))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan", s.handlePlan)
	mux.HandleFunc("/health/live", s.handleLiveness)
	mux.HandleFunc("/health/ready", s.handleReadiness)
	mux.HandleFunc("/health/startup", s.handleStartup)
	// /healthz maps to readiness for load balancers that expect it
	mux.HandleFunc("/healthz", s.handleReadiness)
	mux.HandleFunc("/openapi.yaml", s.handleOpenAPI)
	if s.gatherer != nil {
		mux.Handle("/metrics", metrics.HandlerFor(s.gatherer))
	}
	mux.Handle("/", ui.Handler())

	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.chain(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return s
}

// Handler returns the fully wrapped handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Cache returns the response cache, nil when disabled
func (s *Server) Cache() *PlanCache {
	return s.cache
}

// Start marks the process initialized and serves until Shutdown. It
// returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	s.probeManager.MarkInitialized()
	return s.httpServer.ListenAndServe()
}

// Serve is Start on an existing listener
func (s *Server) Serve(l net.Listener) error {
	s.probeManager.MarkInitialized()
	return s.httpServer.Serve(l)
}

// Shutdown fails readiness, stops keep-alives and drains in-flight
// requests for up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probeManager.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown returns whether Shutdown has been called
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

func (s *Server) writeProbeResponse(w http.ResponseWriter, result *health.ProbeResult, unhealthyStatus int) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status == health.StatusUnhealthy {
		w.WriteHeader(unhealthyStatus)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(result)
}

// handleLiveness always answers 200; a draining process reports degraded.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckLiveness(r.Context()), http.StatusOK)
}

// handleReadiness answers 503 while shutting down or when a checker fails
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckReadiness(r.Context()), http.StatusServiceUnavailable)
}

// handleStartup answers 503 until Start or Serve has been called
func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckStartup(r.Context()), http.StatusServiceUnavailable)
}
