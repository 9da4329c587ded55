// Package cache implements the temporary cache: a per-unshard scratch slot
// that may be constructed on any thread, shared across concurrent unshard
// calls, and reused indefinitely without changing the semantics of any
// unshard that touches it. The intended use case, per the design notes, is
// holding expensive-to-build scratch state (compiled expression contexts
// for protocols with embedded scripting) across repeated calls instead of
// rebuilding it every time.
package cache

import "sync"

// TemporaryCache is a concurrency-safe scratch pool keyed by whatever
// identity an unshard implementation chooses (typically a query's
// structural identity). Because unshard must behave the same with a fresh
// cache or a shared one, every method here is a best-effort memoization:
// nothing observable depends on whether an entry is present.
type TemporaryCache struct {
	entries sync.Map // key -> any
}

// New constructs an empty, ready-to-use cache.
func New() *TemporaryCache {
	return &TemporaryCache{}
}

// GetOrCreate returns the cached value for key, building and storing one
// via build if absent. Safe for concurrent use by multiple unshard calls;
// build may run more than once under contention, but only one result is
// kept, which is fine since unshard must be pure modulo the cache.
func (c *TemporaryCache) GetOrCreate(key any, build func() any) any {
	if v, ok := c.entries.Load(key); ok {
		return v
	}
	v := build()
	actual, _ := c.entries.LoadOrStore(key, v)
	return actual
}

// Delete removes a cached entry, if present.
func (c *TemporaryCache) Delete(key any) {
	c.entries.Delete(key)
}
