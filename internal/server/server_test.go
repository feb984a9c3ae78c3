package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/internal/health"
	"github.com/felixgeelhaar/agentplan/internal/metrics"
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

func newTestServer(t *testing.T, generate GenerateFunc, cfg Config, opts ...Option) *Server {
	t.Helper()
	if generate == nil {
		generate = plan.Generate
	}
	return NewServer(health.NewProbeManager("test"), generate, cfg, opts...)
}

func postPlan(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHandlePlan_Success(t *testing.T) {
	s := newTestServer(t, nil, Config{})

	rec := postPlan(t, s.Handler(), `{"idea":"Build a recipe recommender","options":{"departmentsCount":3}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp types.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Plan)
	assert.Equal(t, types.NodeTypeRoot, resp.Plan.Type)
	assert.Len(t, resp.Plan.Children, 3)

	// request options are merged over server defaults
	opts := types.DefaultOptions()
	opts.DepartmentsCount = 3
	assert.NoError(t, plan.Validate(resp.Plan, opts))
}

func TestHandlePlan_MatchesDirectGeneration(t *testing.T) {
	s := newTestServer(t, nil, Config{})

	rec := postPlan(t, s.Handler(), `{"idea":"  Open a bakery  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	want, err := plan.Generate("Open a bakery", types.DefaultOptions())
	require.NoError(t, err)

	var resp types.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, want, resp.Plan)
}

func TestHandlePlan_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing idea", `{}`, http.StatusBadRequest, "Idea is required"},
		{"blank idea", `{"idea":"   \n\t"}`, http.StatusBadRequest, "Idea is required"},
		{"malformed json", `{"idea":`, http.StatusBadRequest, "Invalid request body"},
		{"wrong type", `{"idea":42}`, http.StatusBadRequest, "Invalid request body"},
	}

	s := newTestServer(t, nil, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postPlan(t, s.Handler(), tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec))
		})
	}
}

func TestHandlePlan_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, nil, Config{MaxBodyBytes: 64})

	body := `{"idea":"` + strings.Repeat("x", 256) + `"}`
	rec := postPlan(t, s.Handler(), body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", decodeError(t, rec))
}

func TestHandlePlan_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil, Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plan", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHandlePlan_GenerationFailure(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantError string
	}{
		{"coded error", errors.NewGenerationError(stderrors.New("boom")), "plan generation failed"},
		{"plain error", stderrors.New("disk on fire"), "disk on fire"},
		{"empty message", stderrors.New(""), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, m := metrics.NewRegistry()
			failing := func(string, types.Options) (*types.Node, error) { return nil, tt.err }
			s := newTestServer(t, failing, Config{}, WithMetrics(m, reg))

			rec := postPlan(t, s.Handler(), `{"idea":"anything"}`)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec))
			assert.Equal(t, float64(1), testutil.ToFloat64(m.PlanGenerations.WithLabelValues("http", "false")))
		})
	}
}

func TestHandlePlan_Cache(t *testing.T) {
	reg, m := metrics.NewRegistry()
	calls := 0
	counting := func(idea string, opts types.Options) (*types.Node, error) {
		calls++
		return plan.Generate(idea, opts)
	}
	s := newTestServer(t, counting, Config{CacheTTL: time.Minute}, WithMetrics(m, reg))

	first := postPlan(t, s.Handler(), `{"idea":"Build a recipe recommender"}`)
	require.Equal(t, http.StatusOK, first.Code)

	// explicit defaults and surrounding whitespace hit the same entry
	second := postPlan(t, s.Handler(), `{"idea":" Build a recipe recommender ","options":{"breadth":3,"depth":5}}`)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, s.Cache().ItemCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMisses))

	// a different idea misses
	third := postPlan(t, s.Handler(), `{"idea":"Open a bakery"}`)
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, calls)
}

func TestHandlePlan_CacheDisabled(t *testing.T) {
	calls := 0
	counting := func(idea string, opts types.Options) (*types.Node, error) {
		calls++
		return plan.Generate(idea, opts)
	}
	s := newTestServer(t, counting, Config{})
	assert.Nil(t, s.Cache())

	postPlan(t, s.Handler(), `{"idea":"Open a bakery"}`)
	postPlan(t, s.Handler(), `{"idea":"Open a bakery"}`)
	assert.Equal(t, 2, calls)
}

func TestHandlePlan_RecordsMetrics(t *testing.T) {
	reg, m := metrics.NewRegistry()
	s := newTestServer(t, nil, Config{}, WithMetrics(m, reg))

	postPlan(t, s.Handler(), `{"idea":"Open a bakery"}`)
	postPlan(t, s.Handler(), `{"idea":""}`)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PlanGenerations.WithLabelValues("http", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/plan", "POST", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/plan", "POST", "400")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Errors.WithLabelValues(string(errors.ErrCodeInvalidInput), "server")))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil, Config{})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	})
}

func TestProbes(t *testing.T) {
	probes := health.NewProbeManager("test")
	probes.AddChecker(health.NewGeneratorChecker())
	s := NewServer(probes, plan.Generate, Config{CacheTTL: time.Minute})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/startup").Code)

	probes.MarkInitialized()
	assert.Equal(t, http.StatusOK, get("/health/startup").Code)

	ready := get("/health/ready")
	require.Equal(t, http.StatusOK, ready.Code, ready.Body.String())
	var result health.ProbeResult
	require.NoError(t, json.Unmarshal(ready.Body.Bytes(), &result))
	assert.Equal(t, health.StatusHealthy, result.Status)
	assert.Contains(t, result.Checks, "plan-generator")
	assert.Contains(t, result.Checks, "plan-cache")

	assert.Equal(t, http.StatusOK, get("/healthz").Code)

	probes.MarkShutdown()
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready").Code)
	assert.Equal(t, http.StatusOK, get("/health/live").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("served with registry", func(t *testing.T) {
		reg, m := metrics.NewRegistry()
		s := newTestServer(t, nil, Config{}, WithMetrics(m, reg))
		postPlan(t, s.Handler(), `{"idea":"Open a bakery"}`)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "agentplan_plan_generations_total")
	})

	t.Run("falls through to page without registry", func(t *testing.T) {
		s := newTestServer(t, nil, Config{})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.NotContains(t, rec.Body.String(), "agentplan_")
	})
}

func TestUIAndOpenAPI(t *testing.T) {
	s := newTestServer(t, nil, Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Agentic Plan Generator")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/api/plan")
}

func TestServeAndShutdown(t *testing.T) {
	probes := health.NewProbeManager("test")
	s := NewServer(probes, plan.Generate, Config{ShutdownTimeout: time.Second})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	url := "http://" + l.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/health/startup")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	resp, err := http.Post(url+"/api/plan", "application/json", strings.NewReader(`{"idea":"Open a bakery"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, s.IsShuttingDown())
	assert.True(t, probes.IsShuttingDown())
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}

func TestValidatePlanJSON(t *testing.T) {
	root, err := plan.Generate("Build a recipe recommender", types.DefaultOptions())
	require.NoError(t, err)
	data, err := plan.Marshal(root)
	require.NoError(t, err)

	assert.NoError(t, ValidatePlanJSON(data))

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing children", `{"id":"root","type":"root","title":"x","description":"d","role":"Executive"}`},
		{"bad type", `{"id":"root","type":"galaxy","title":"x","description":"d","role":"Executive","children":[]}`},
		{"bad id", `{"id":"Root!","type":"root","title":"x","description":"d","role":"Executive","children":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidatePlanJSON([]byte(tt.data)))
		})
	}
}

func TestPlanCache_NilSafe(t *testing.T) {
	var c *PlanCache
	c.Set("k", []byte("v"))
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.ItemCount())
	c.Flush()

	c = NewPlanCache(time.Minute, 0)
	c.Set("k", []byte("v"))
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	c.Flush()
	assert.Zero(t, c.ItemCount())
}
