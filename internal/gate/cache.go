package gate

import (
	"sync"
	"time"

	"erp-service/prometheus"
)

type cacheEntry struct {
	ctx      *TenantContext
	cachedAt time.Time
}

// ContextCache memoizes the subscription validator's result per tenant id
// for a fixed window, to avoid repeated store round-trips on hot tenants.
// It is process-local; each instance warms its own copy. Two concurrent
// misses for the same tenant may both recompute, last write wins.
type ContextCache struct {
	entries   sync.Map // map[uint]*cacheEntry
	ttl       time.Duration
	validator *SubscriptionValidator
}

// NewContextCache wraps the validator with a TTL cache
func NewContextCache(v *SubscriptionValidator, ttl time.Duration) *ContextCache {
	return &ContextCache{
		ttl:       ttl,
		validator: v,
	}
}

// GetOrCompute returns the cached tenant context when fresh, otherwise
// revalidates and overwrites the entry. Rejections are never cached.
func (c *ContextCache) GetOrCompute(tenantID uint) (*TenantContext, *Error) {
	if val, ok := c.entries.Load(tenantID); ok {
		entry := val.(*cacheEntry)
		if time.Since(entry.cachedAt) < c.ttl {
			prometheus.CacheHitCounter.Inc()
			return entry.ctx, nil
		}
	}

	prometheus.CacheMissCounter.Inc()
	tc, gerr := c.validator.Validate(tenantID)
	if gerr != nil {
		return nil, gerr
	}

	c.entries.Store(tenantID, &cacheEntry{ctx: tc, cachedAt: tc.CachedAt})
	return tc, nil
}

// Invalidate drops the cached context for a tenant. Called after local
// subscription or plan writes; other instances converge within the TTL.
func (c *ContextCache) Invalidate(tenantID uint) {
	c.entries.Delete(tenantID)
}

// Clear drops all cached contexts
func (c *ContextCache) Clear() {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
}
