package server

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// PlanCache holds encoded plan responses keyed by request fingerprint.
// Encoded bytes are stored so cached trees are never shared or mutated.
type PlanCache struct {
	cache *cache.Cache
}

// NewPlanCache creates a cache whose entries expire after ttl and are
// purged every cleanup interval. A non-positive ttl disables caching and
// returns nil; all methods are safe on a nil cache.
func NewPlanCache(ttl, cleanup time.Duration) *PlanCache {
	if ttl <= 0 {
		return nil
	}
	if cleanup <= 0 {
		cleanup = ttl
	}
	return &PlanCache{cache: cache.New(ttl, cleanup)}
}

// Get returns the cached response for key
func (p *PlanCache) Get(key string) ([]byte, bool) {
	if p == nil {
		return nil, false
	}
	if x, found := p.cache.Get(key); found {
		return x.([]byte), true
	}
	return nil, false
}

// Set stores a response under key with the default expiration
func (p *PlanCache) Set(key string, body []byte) {
	if p == nil {
		return
	}
	p.cache.Set(key, body, cache.DefaultExpiration)
}

// ItemCount returns the number of cached responses, expired ones included
// until the next cleanup.
func (p *PlanCache) ItemCount() int {
	if p == nil {
		return 0
	}
	return p.cache.ItemCount()
}

// Flush drops every cached response
func (p *PlanCache) Flush() {
	if p == nil {
		return
	}
	p.cache.Flush()
}
