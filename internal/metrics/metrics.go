package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for agentplan
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Plan generation metrics
	PlanGenerations *prometheus.CounterVec
	PlanDuration    *prometheus.HistogramVec
	PlanNodes       *prometheus.HistogramVec
	PlanDepth       prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Response cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Drift verification metrics
	DriftChecks *prometheus.CounterVec

	// Errors by structured error code
	Errors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registry
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentplan_command_executions_total",
				Help: "Total number of CLI command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentplan_command_duration_seconds",
				Help:    "CLI command duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		PlanGenerations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentplan_plan_generations_total",
				Help: "Total number of plan generations",
			},
			[]string{"source", "success"},
		),
		PlanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentplan_plan_generation_duration_seconds",
				Help:    "Plan generation duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"source"},
		),
		PlanNodes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentplan_plan_nodes",
				Help:    "Number of nodes per generated plan, by node type",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"type"},
		),
		PlanDepth: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentplan_plan_max_depth",
				Help:    "Maximum depth of generated plans",
				Buckets: []float64{2, 3, 4, 5, 6},
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentplan_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentplan_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),

		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agentplan_plan_cache_hits_total",
				Help: "Total number of plan responses served from cache",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agentplan_plan_cache_misses_total",
				Help: "Total number of plan requests that had to generate",
			},
		),

		DriftChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentplan_drift_checks_total",
				Help: "Total number of plan drift verifications",
			},
			[]string{"drifted"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentplan_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// PlanShape is the subset of plan statistics recorded per generation
type PlanShape struct {
	ByType   map[string]int
	MaxDepth int
}

// RecordGeneration records one plan generation. shape is ignored on failure.
func (m *Metrics) RecordGeneration(source string, d time.Duration, shape PlanShape, err error) {
	m.PlanGenerations.WithLabelValues(source, strconv.FormatBool(err == nil)).Inc()
	m.PlanDuration.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		return
	}
	for typ, n := range shape.ByType {
		m.PlanNodes.WithLabelValues(typ).Observe(float64(n))
	}
	m.PlanDepth.Observe(float64(shape.MaxDepth))
}

// RecordCommand records one CLI command execution
func (m *Metrics) RecordCommand(command string, d time.Duration, err error) {
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(err == nil)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordHTTP records one served HTTP request
func (m *Metrics) RecordHTTP(route, method string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordCache records a cache lookup
func (m *Metrics) RecordCache(hit bool) {
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}

// RecordDrift records a drift verification outcome
func (m *Metrics) RecordDrift(drifted bool) {
	m.DriftChecks.WithLabelValues(strconv.FormatBool(drifted)).Inc()
}

// RecordError counts an error by its code. Errors without a code are
// counted as "unknown".
func (m *Metrics) RecordError(code, component string) {
	if code == "" {
		code = "unknown"
	}
	m.Errors.WithLabelValues(code, component).Inc()
}
