package governor

import "time"

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// CacheResponse stores value for key until ttl elapses, overwriting any
// existing entry. A non-positive ttl uses the governor default.
func (g *Governor) CacheResponse(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = g.cacheTTL
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[key] = cacheEntry{
		value:     value,
		expiresAt: g.clock().Add(ttl),
	}
}

// CachedResponse returns the stored value for key while it is still fresh.
// An expired entry is evicted on read and reported as absent; stale data is
// never returned.
func (g *Governor) CachedResponse(key string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.cache[key]
	if !ok {
		return nil, false
	}
	if !g.clock().Before(entry.expiresAt) {
		delete(g.cache, key)
		return nil, false
	}
	return entry.value, true
}

// ClearCache removes entries for the given keys, or every entry when
// called with none.
func (g *Governor) ClearCache(keys ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(keys) == 0 {
		g.cache = make(map[string]cacheEntry)
		return
	}
	for _, key := range keys {
		delete(g.cache, key)
	}
}
