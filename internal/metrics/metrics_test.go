package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordGeneration(t *testing.T) {
	_, m := NewRegistry()

	shape := PlanShape{ByType: map[string]int{"department": 3, "atomic": 40}, MaxDepth: 4}
	m.RecordGeneration("http", 2*time.Millisecond, shape, nil)
	m.RecordGeneration("http", time.Millisecond, shape, errors.New("boom"))
	m.RecordGeneration("cli", time.Millisecond, shape, nil)

	if got := testutil.ToFloat64(m.PlanGenerations.WithLabelValues("http", "true")); got != 1 {
		t.Errorf("http successes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PlanGenerations.WithLabelValues("http", "false")); got != 1 {
		t.Errorf("http failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.PlanNodes); got != 2 {
		t.Errorf("plan node series = %d, want 2", got)
	}
	if got := testutil.CollectAndCount(m.PlanDepth); got != 1 {
		t.Errorf("plan depth series = %d, want 1", got)
	}
}

func TestRecordCommandAndHTTP(t *testing.T) {
	_, m := NewRegistry()

	m.RecordCommand("generate", time.Second, nil)
	m.RecordCommand("generate", time.Second, errors.New("x"))
	m.RecordHTTP("/api/plan", http.MethodPost, 200, 5*time.Millisecond)
	m.RecordHTTP("/api/plan", http.MethodPost, 400, time.Millisecond)

	if got := testutil.ToFloat64(m.CommandExecutions.WithLabelValues("generate", "false")); got != 1 {
		t.Errorf("failed generate commands = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/plan", "POST", "400")); got != 1 {
		t.Errorf("400 responses = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.HTTPRequests); got != 2 {
		t.Errorf("http request series = %d, want 2", got)
	}
}

func TestRecordCacheDriftAndErrors(t *testing.T) {
	_, m := NewRegistry()

	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)
	m.RecordDrift(true)
	m.RecordError("", "server")
	m.RecordError("INPUT-001", "server")

	if got := testutil.ToFloat64(m.CacheHits); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheMisses); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DriftChecks.WithLabelValues("true")); got != 1 {
		t.Errorf("drift checks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("unknown", "server")); got != 1 {
		t.Errorf("unknown errors = %v, want 1", got)
	}
}

func TestHandlerFor(t *testing.T) {
	reg, m := NewRegistry()
	m.RecordCache(true)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(string(body), "agentplan_plan_cache_hits_total 1") {
		t.Errorf("metrics output missing cache hits:\n%s", body)
	}
}

func TestInitDefault_Idempotent(t *testing.T) {
	first := InitDefault()
	if GetDefault() != first || InitDefault() != first {
		t.Error("InitDefault should return the same instance")
	}
}
