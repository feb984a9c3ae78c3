package health

import (
	"context"
	"time"

	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// probeIdea is the fixed idea the generator checker expands
const probeIdea = "health probe plan"

// GeneratorChecker generates and validates a minimal plan
type GeneratorChecker struct {
	opts types.Options
}

// NewGeneratorChecker creates a checker using the smallest valid options
func NewGeneratorChecker() *GeneratorChecker {
	return &GeneratorChecker{opts: types.Options{
		Breadth:          types.MinBreadth,
		Depth:            types.MinDepth,
		DepartmentsCount: types.MinDepartments,
		IncludeQA:        true,
		AtomicTargetMins: types.MaxAtomicTargetMins,
	}}
}

// Name returns the checker name
func (c *GeneratorChecker) Name() string { return "plan-generator" }

// Check runs one generation
func (c *GeneratorChecker) Check(ctx context.Context) *Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("check cancelled").WithDetail("error", err.Error())
	}

	start := time.Now()
	root, err := plan.Generate(probeIdea, c.opts)
	latency := time.Since(start)
	if err != nil {
		return Unhealthy("plan generation failed").
			WithDetail("error", err.Error()).
			WithLatency(latency)
	}

	stats := plan.Summarize(root)
	return Healthy("plan generation working").
		WithDetail("nodes", stats.Nodes).
		WithDetail("max_depth", stats.MaxDepth).
		WithLatency(latency)
}

// ItemCounter is implemented by caches that can report their size
type ItemCounter interface {
	ItemCount() int
}

// CacheChecker reports the plan response cache. A disabled cache (nil) is
// degraded rather than unhealthy: requests still succeed, only slower.
type CacheChecker struct {
	cache ItemCounter
}

// NewCacheChecker creates a cache checker; cache may be nil
func NewCacheChecker(cache ItemCounter) *CacheChecker {
	return &CacheChecker{cache: cache}
}

// Name returns the checker name
func (c *CacheChecker) Name() string { return "plan-cache" }

// Check reports the cached item count
func (c *CacheChecker) Check(_ context.Context) *Result {
	if c.cache == nil {
		return Degraded("plan cache disabled")
	}
	return Healthy("plan cache available").WithDetail("items", c.cache.ItemCount())
}
