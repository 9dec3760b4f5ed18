package governor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClock(start time.Time) (*time.Time, Option) {
	now := start
	return &now, WithClock(func() time.Time { return now })
}

func TestIsRateLimitedFreshKey(t *testing.T) {
	g := New()

	dec := g.IsRateLimited("api.cityofchicago.org")
	require.False(t, dec.Limited)
	require.Zero(t, dec.RetryAfter)
}

func TestWindowLimit(t *testing.T) {
	_, clock := testClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	g := New(clock)
	g.SetLimit("geocode", Config{MaxRequests: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		require.False(t, g.IsRateLimited("geocode").Limited)
		g.RecordRequest("geocode")
	}

	dec := g.IsRateLimited("geocode")
	require.True(t, dec.Limited)
	require.Equal(t, time.Minute, dec.RetryAfter)
}

func TestWindowExpiryRollsCount(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	g := New(clock)
	g.SetLimit("geocode", Config{MaxRequests: 1, Window: time.Minute})

	g.RecordRequest("geocode")
	require.True(t, g.IsRateLimited("geocode").Limited)

	// An expired window is fresh regardless of its stale count.
	*now = now.Add(time.Minute)
	dec := g.IsRateLimited("geocode")
	require.False(t, dec.Limited)
	require.Zero(t, dec.RetryAfter)

	g.RecordRequest("geocode")
	st := g.Status().RequestCounts["geocode"]
	require.Equal(t, 1, st.Count)
	require.Equal(t, *now, st.WindowStart)
}

func TestWindowIndependence(t *testing.T) {
	g := New(WithDefaults(Config{MaxRequests: 1, Window: time.Minute}))

	g.RecordRequest("socrata")
	g.RecordRequest("socrata")

	require.True(t, g.IsRateLimited("socrata").Limited)
	require.False(t, g.IsRateLimited("lob").Limited)
}

func TestSetLimitKeepsLiveCount(t *testing.T) {
	g := New()
	g.RecordRequest("mail")
	g.RecordRequest("mail")

	g.SetLimit("mail", Config{MaxRequests: 2, Window: time.Hour})

	require.Equal(t, 2, g.Status().RequestCounts["mail"].Count)
	require.True(t, g.IsRateLimited("mail").Limited)
}

func TestZeroMaxRequests(t *testing.T) {
	g := New()
	g.SetLimit("banned", Config{MaxRequests: 0, Window: time.Minute})

	require.False(t, g.IsRateLimited("banned").Limited)

	g.RecordRequest("banned")
	dec := g.IsRateLimited("banned")
	require.True(t, dec.Limited)
	require.Positive(t, dec.RetryAfter)
}

func TestDeduplicateConcurrentSameKey(t *testing.T) {
	g := New()

	var calls atomic.Int32
	release := make(chan struct{})
	producer := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const n = 5
	var wg sync.WaitGroup
	results := make([]any, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.Deduplicate(context.Background(), "plate:AB1234", producer)
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.pending["plate:AB1234"] == n
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, g.Status().Pending)

	// Give the last attachers time to reach the shared flight before the
	// producer settles.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "shared", results[i])
	}
	require.Equal(t, int32(1), calls.Load())
	require.Zero(t, g.Status().Pending)
}

func TestDeduplicateDistinctKeys(t *testing.T) {
	g := New()

	var calls atomic.Int32
	producer := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "ok", nil
	}

	_, err := g.Deduplicate(context.Background(), "plate:AB1234", producer)
	require.NoError(t, err)
	_, err = g.Deduplicate(context.Background(), "plate:CD5678", producer)
	require.NoError(t, err)

	require.Equal(t, int32(2), calls.Load())
}

func TestDeduplicateNoMemoization(t *testing.T) {
	g := New()

	var calls atomic.Int32
	producer := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	first, err := g.Deduplicate(context.Background(), "plate:AB1234", producer)
	require.NoError(t, err)
	second, err := g.Deduplicate(context.Background(), "plate:AB1234", producer)
	require.NoError(t, err)

	require.Equal(t, int32(1), first)
	require.Equal(t, int32(2), second)
}

func TestDeduplicateSharedError(t *testing.T) {
	g := New()
	boom := errors.New("socrata unavailable")

	_, err := g.Deduplicate(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, g.Status().Pending)
}

func TestCacheRoundTrip(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	g := New(clock)

	g.CacheResponse("geocode:clark-and-addison", []float64{41.948, -87.655}, 30*time.Second)

	value, ok := g.CachedResponse("geocode:clark-and-addison")
	require.True(t, ok)
	require.Equal(t, []float64{41.948, -87.655}, value)

	*now = now.Add(30 * time.Second)
	_, ok = g.CachedResponse("geocode:clark-and-addison")
	require.False(t, ok)
	require.Zero(t, g.Status().Cached)
}

func TestClearCache(t *testing.T) {
	g := New()
	g.CacheResponse("a", 1, time.Minute)
	g.CacheResponse("b", 2, time.Minute)

	g.ClearCache("a")
	_, ok := g.CachedResponse("a")
	require.False(t, ok)
	_, ok = g.CachedResponse("b")
	require.True(t, ok)

	g.ClearCache()
	require.Zero(t, g.Status().Cached)
}

func TestDoCacheHit(t *testing.T) {
	g := New()
	g.CacheResponse("plate:AB1234", "cached tickets", time.Minute)

	value, err := g.Do(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		t.Fatal("producer must not run on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, "cached tickets", value)

	// A cache hit performs no rate-limit accounting.
	require.Empty(t, g.Status().RequestCounts)
}

func TestDoSkipCache(t *testing.T) {
	g := New()
	g.CacheResponse("plate:AB1234", "stale", time.Minute)

	value, err := g.Do(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		return "fresh", nil
	}, SkipCache())
	require.NoError(t, err)
	require.Equal(t, "fresh", value)

	// The fresh result replaced the cached one.
	cached, ok := g.CachedResponse("plate:AB1234")
	require.True(t, ok)
	require.Equal(t, "fresh", cached)
}

func TestDoRateLimited(t *testing.T) {
	g := New()
	g.SetLimit("plate:AB1234", Config{MaxRequests: 0, Window: time.Minute})
	g.RecordRequest("plate:AB1234")

	_, err := g.Do(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		t.Fatal("producer must not run when limited")
		return nil, nil
	})

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	require.Equal(t, "plate:AB1234", rle.Key)
	require.Positive(t, rle.RetryAfter)
	require.Equal(t, ReasonRateLimited, rle.Reason())
}

func TestDoRecordsThenCachesSuccess(t *testing.T) {
	g := New()

	value, err := g.Do(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		return "tickets", nil
	})
	require.NoError(t, err)
	require.Equal(t, "tickets", value)

	st := g.Status()
	require.Equal(t, 1, st.RequestCounts["plate:AB1234"].Count)
	require.Equal(t, 1, st.Cached)
}

func TestDoWithoutCaching(t *testing.T) {
	g := New()

	_, err := g.Do(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		return "tickets", nil
	}, WithoutCaching())
	require.NoError(t, err)
	require.Zero(t, g.Status().Cached)
}

func TestDoProducerErrorNotCached(t *testing.T) {
	g := New()
	boom := errors.New("upstream 500")

	_, err := g.Do(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	st := g.Status()
	require.Zero(t, st.Cached)
	// The request was still recorded before the producer ran.
	require.Equal(t, 1, st.RequestCounts["plate:AB1234"].Count)
}

func TestDoWithTTL(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	g := New(clock)

	_, err := g.Do(context.Background(), "plate:AB1234", func(ctx context.Context) (any, error) {
		return "tickets", nil
	}, WithTTL(5*time.Second))
	require.NoError(t, err)

	*now = now.Add(5 * time.Second)
	_, ok := g.CachedResponse("plate:AB1234")
	require.False(t, ok)
}

func TestCallTyped(t *testing.T) {
	g := New()

	tickets, err := Call(context.Background(), g, "plate:AB1234", func(ctx context.Context) ([]string, error) {
		return []string{"T100", "T101"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"T100", "T101"}, tickets)

	// Second call is a cache hit with the same concrete type.
	tickets, err = Call(context.Background(), g, "plate:AB1234", func(ctx context.Context) ([]string, error) {
		return nil, errors.New("must not run")
	})
	require.NoError(t, err)
	require.Equal(t, []string{"T100", "T101"}, tickets)
}

func TestStatusSnapshot(t *testing.T) {
	g := New()
	g.RecordRequest("/a")
	g.RecordRequest("/a")
	g.CacheResponse("b", "value", time.Minute)

	st := g.Status()
	require.Equal(t, 2, st.RequestCounts["/a"].Count)
	require.Zero(t, st.Pending)
	require.Equal(t, 1, st.Cached)

	// Snapshot is detached from live state.
	st.RequestCounts["/a"] = WindowState{Count: 99}
	require.Equal(t, 2, g.Status().RequestCounts["/a"].Count)
}

func TestReset(t *testing.T) {
	g := New()
	g.SetLimit("a", Config{MaxRequests: 1, Window: time.Minute})
	g.RecordRequest("a")
	g.CacheResponse("b", "value", time.Minute)

	g.Reset()

	st := g.Status()
	require.Empty(t, st.RequestCounts)
	require.Zero(t, st.Cached)
	require.Zero(t, st.Pending)
	require.False(t, g.IsRateLimited("a").Limited)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) record(event string, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+key)
}

func (r *eventRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestObserverCacheHit(t *testing.T) {
	rec := &eventRecorder{}
	g := New(WithObserver(rec.record))

	producer := func(ctx context.Context) (any, error) { return "fresh", nil }

	_, err := g.Do(context.Background(), "plate:AB1234", producer)
	require.NoError(t, err)
	require.Empty(t, rec.snapshot())

	_, err = g.Do(context.Background(), "plate:AB1234", producer)
	require.NoError(t, err)
	require.Equal(t, []string{"cache_hit:plate:AB1234"}, rec.snapshot())
}

func TestObserverCoalesced(t *testing.T) {
	rec := &eventRecorder{}
	g := New(WithObserver(rec.record))

	var calls atomic.Int32
	release := make(chan struct{})
	producer := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.Deduplicate(context.Background(), "plate:AB1234", producer)
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.pending["plate:AB1234"] == 2
	}, time.Second, time.Millisecond)

	// Give the second caller time to attach to the shared flight before
	// the producer settles.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// One caller executed the producer, the other rode along.
	require.Equal(t, []string{"coalesced:plate:AB1234"}, rec.snapshot())
}
