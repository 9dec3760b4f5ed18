// Package governor protects downstream municipal APIs from concurrent or
// repeated outbound calls. It combines per-key fixed-window rate limiting,
// in-flight request coalescing, and a TTL response cache behind a single
// guarded-call operation.
//
// All state is process-local and in-memory. Counters and cache entries are
// approximate usage governors, not durable records; a restart drops them.
package governor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Producer is a caller-supplied outbound operation. The governor treats it
// as an opaque black box with a value-or-error outcome.
type Producer func(ctx context.Context) (any, error)

// Config bounds requests for a key: at most MaxRequests per Window.
type Config struct {
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"window"`
}

// WindowState is the live fixed-window counter for a key.
type WindowState struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}

// Status is a point-in-time snapshot of governor state.
type Status struct {
	RequestCounts map[string]WindowState `json:"request_counts"`
	Pending       int                    `json:"pending"`
	Cached        int                    `json:"cached"`
}

// ReasonRateLimited is the machine-readable reason carried by RateLimitError.
const ReasonRateLimited = "rate_limited"

// RateLimitError is returned from the guarded-call path when a key's window
// is exhausted. Direct IsRateLimited queries never return it; they report a
// Decision instead.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests for %q, retry in %s", e.Key, e.RetryAfter.Round(time.Millisecond))
}

// Reason returns the machine-readable rejection reason.
func (e *RateLimitError) Reason() string { return ReasonRateLimited }

// Governor owns the four call-protection stores. Construct one per process
// (or per test) with New; all mutation goes through its methods.
type Governor struct {
	mu       sync.Mutex
	defaults Config
	cacheTTL time.Duration
	clock    func() time.Time
	observer func(event string, key string)

	windows map[string]*WindowState
	limits  map[string]Config
	cache   map[string]cacheEntry
	pending map[string]int
	group   singleflight.Group
}

// Observer events emitted from the guarded-call path.
const (
	EventCacheHit  = "cache_hit"
	EventCoalesced = "coalesced"
)

// Option configures a Governor created by New.
type Option func(*Governor)

// WithDefaults sets the fallback limit for keys without an override.
func WithDefaults(cfg Config) Option {
	return func(g *Governor) {
		if cfg.MaxRequests >= 0 && cfg.Window > 0 {
			g.defaults = cfg
		}
	}
}

// WithCacheTTL sets the default response cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *Governor) {
		if ttl > 0 {
			g.cacheTTL = ttl
		}
	}
}

// WithLimits seeds per-key limit overrides.
func WithLimits(limits map[string]Config) Option {
	return func(g *Governor) {
		for key, cfg := range limits {
			if key != "" && cfg.Window > 0 {
				g.limits[key] = cfg
			}
		}
	}
}

// WithObserver registers a callback invoked when a guarded call is served
// from cache or coalesced onto another caller's in-flight invocation. The
// callback runs synchronously and must not call back into the Governor.
func WithObserver(fn func(event string, key string)) Option {
	return func(g *Governor) {
		g.observer = fn
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(g *Governor) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// New constructs a Governor with conservative defaults: 30 requests per
// minute per key and a 60 second cache TTL.
func New(opts ...Option) *Governor {
	g := &Governor{
		defaults: Config{MaxRequests: 30, Window: time.Minute},
		cacheTTL: 60 * time.Second,
		clock:    func() time.Time { return time.Now().UTC() },
		windows:  make(map[string]*WindowState),
		limits:   make(map[string]Config),
		cache:    make(map[string]cacheEntry),
		pending:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// callOptions control a single guarded call.
type callOptions struct {
	skipCache   bool
	cacheResult bool
	ttl         time.Duration
}

// CallOption configures one Do invocation.
type CallOption func(*callOptions)

// SkipCache bypasses the response cache lookup for this call. A fresh
// result is still cached unless WithoutCaching is also set.
func SkipCache() CallOption {
	return func(o *callOptions) { o.skipCache = true }
}

// WithTTL caches a successful result with an explicit TTL instead of the
// governor default.
func WithTTL(ttl time.Duration) CallOption {
	return func(o *callOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithoutCaching skips storing the result on success.
func WithoutCaching() CallOption {
	return func(o *callOptions) { o.cacheResult = false }
}

// Do runs producer under the full guard: response cache, then in-flight
// coalescing, then rate-limit enforcement. On a cache hit the producer is
// never invoked and no rate-limit accounting occurs. When the key's window
// is exhausted the call fails with *RateLimitError without invoking the
// producer. Successful results are cached unless opted out; producer errors
// propagate unchanged and are never cached.
func (g *Governor) Do(ctx context.Context, key string, producer Producer, opts ...CallOption) (any, error) {
	options := callOptions{cacheResult: true, ttl: g.cacheTTL}
	for _, opt := range opts {
		opt(&options)
	}

	if !options.skipCache {
		if value, ok := g.CachedResponse(key); ok {
			g.observe(EventCacheHit, key)
			return value, nil
		}
	}

	return g.Deduplicate(ctx, key, func(ctx context.Context) (any, error) {
		if dec := g.allow(key); dec.Limited {
			return nil, &RateLimitError{Key: key, RetryAfter: dec.RetryAfter}
		}

		value, err := producer(ctx)
		if err != nil {
			return nil, err
		}

		if options.cacheResult {
			g.CacheResponse(key, value, options.ttl)
		}
		return value, nil
	})
}

// Call is a typed wrapper around Do for callers that know the result type.
func Call[T any](ctx context.Context, g *Governor, key string, fn func(ctx context.Context) (T, error), opts ...CallOption) (T, error) {
	value, err := g.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

func (g *Governor) observe(event string, key string) {
	if g.observer != nil {
		g.observer(event, key)
	}
}

// Status reports a snapshot of all four stores without mutating them.
func (g *Governor) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	counts := make(map[string]WindowState, len(g.windows))
	for key, state := range g.windows {
		counts[key] = *state
	}

	return Status{
		RequestCounts: counts,
		Pending:       len(g.pending),
		Cached:        len(g.cache),
	}
}

// Reset atomically clears counters, limit overrides, cache entries, and
// in-flight registrations. Calls already executing settle normally but a
// subsequent call for the same key starts a fresh invocation.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key := range g.pending {
		g.group.Forget(key)
	}

	g.windows = make(map[string]*WindowState)
	g.limits = make(map[string]Config)
	g.cache = make(map[string]cacheEntry)
	g.pending = make(map[string]int)
}
