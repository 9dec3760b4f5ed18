package metrics

import (
	"github.com/ticketless/ticketless/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	LookupsTotal = "app_lookups_total"

	// Governor metrics
	RateLimitedTotal = "governor_rate_limited_total"
	CacheHitsTotal   = "governor_cache_hits_total"
	CoalescedTotal   = "governor_coalesced_calls_total"
	PendingCalls     = "governor_pending_calls"
	CachedResponses  = "governor_cached_responses"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordLookup records a downstream lookup with status.
func RecordLookup(lookupType string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			LookupsTotal,
			1,
			map[string]string{
				"lookup": lookupType,
				"status": status,
			},
		)
	}
}

// RecordRateLimited records a guarded call rejected by the governor.
func RecordRateLimited(key string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitedTotal,
			1,
			map[string]string{"key": key},
		)
	}
}

// RecordCacheHit records a guarded call served from the response cache.
func RecordCacheHit(key string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CacheHitsTotal,
			1,
			map[string]string{"key": key},
		)
	}
}

// RecordCoalesced records a guarded call that shared another caller's
// in-flight invocation.
func RecordCoalesced(key string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CoalescedTotal,
			1,
			map[string]string{"key": key},
		)
	}
}

// SetGovernorGauges publishes a governor status snapshot.
func SetGovernorGauges(pending int, cached int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(PendingCalls, float64(pending), nil)
		_ = observability.TelemetrySystem.Gauge(CachedResponses, float64(cached), nil)
	}
}

// SetServerStartTime records the server start time (Unix timestamp).
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
