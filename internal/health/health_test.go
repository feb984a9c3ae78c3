package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(ctx context.Context) *Result {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Unhealthy("cancelled")
		}
	}
	return s.result
}

type countingCache int

func (c countingCache) ItemCount() int { return int(c) }

func TestResultBuilders(t *testing.T) {
	r := Degraded("slow").WithDetail("items", 3).WithLatency(time.Millisecond)

	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, "slow", r.Message)
	assert.Equal(t, 3, r.Details["items"])
	assert.Equal(t, time.Millisecond, r.Latency)
	assert.Equal(t, "unhealthy", Unhealthy("x").Status.String())
	assert.Equal(t, StatusHealthy, Healthy("ok").Status)
}

func TestManager_Check(t *testing.T) {
	m := NewManager()
	m.AddChecker(&stubChecker{name: "a", result: Healthy("ok")})
	m.AddChecker(&stubChecker{name: "b", result: Degraded("meh")})

	results := m.Check(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["a"].Status)
	assert.Equal(t, StatusDegraded, results["b"].Status)
	assert.Equal(t, []string{"a", "b"}, m.CheckNames())
	assert.Equal(t, StatusDegraded, m.OverallStatus(results))
}

func TestManager_Timeout(t *testing.T) {
	m := NewManager().WithTimeout(20 * time.Millisecond)
	m.AddChecker(&stubChecker{name: "slow", result: Healthy("late"), delay: time.Second})

	start := time.Now()
	results := m.Check(context.Background())

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, StatusUnhealthy, results["slow"].Status)
}

func TestManager_NilResult(t *testing.T) {
	m := NewManager()
	m.AddChecker(&stubChecker{name: "broken"})

	results := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, results["broken"].Status)
}

func TestOverallStatus(t *testing.T) {
	m := NewManager()
	tests := []struct {
		name    string
		results map[string]*Result
		want    Status
	}{
		{"empty", map[string]*Result{}, StatusHealthy},
		{"all healthy", map[string]*Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]*Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]*Result{"a": Degraded(""), "b": Unhealthy("")}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.OverallStatus(tt.results))
		})
	}
}

func TestProbeManager_Lifecycle(t *testing.T) {
	pm := NewProbeManager("1.2.3")
	pm.AddChecker(&stubChecker{name: "ok", result: Healthy("ok")})
	ctx := context.Background()

	assert.Equal(t, StatusUnhealthy, pm.CheckStartup(ctx).Status)
	pm.MarkInitialized()
	assert.Equal(t, StatusHealthy, pm.CheckStartup(ctx).Status)

	ready := pm.CheckReadiness(ctx)
	assert.Equal(t, StatusHealthy, ready.Status)
	assert.Equal(t, "1.2.3", ready.Version)
	assert.Contains(t, ready.Checks, "ok")

	live := pm.CheckLiveness(ctx)
	assert.Equal(t, StatusHealthy, live.Status)
	assert.Empty(t, live.Checks)

	pm.MarkShutdown()
	assert.True(t, pm.IsShuttingDown())
	assert.Equal(t, StatusUnhealthy, pm.CheckReadiness(ctx).Status)
	assert.Equal(t, StatusDegraded, pm.CheckLiveness(ctx).Status)
}

func TestGeneratorChecker(t *testing.T) {
	c := NewGeneratorChecker()
	assert.Equal(t, "plan-generator", c.Name())

	r := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status, r.Message)
	assert.Greater(t, r.Details["nodes"], 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, StatusUnhealthy, c.Check(ctx).Status)
}

func TestCacheChecker(t *testing.T) {
	r := NewCacheChecker(countingCache(7)).Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, 7, r.Details["items"])

	disabled := NewCacheChecker(nil)
	assert.Equal(t, "plan-cache", disabled.Name())
	assert.Equal(t, StatusDegraded, disabled.Check(context.Background()).Status)
}
