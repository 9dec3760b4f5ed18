package governor

import "time"

// Decision reports whether a key is currently limited. RetryAfter is only
// meaningful while Limited is true, and is always positive then.
type Decision struct {
	Limited    bool          `json:"limited"`
	RetryAfter time.Duration `json:"retry_after"`
}

// SetLimit upserts the per-key limit override. It takes effect on the next
// window evaluation for the key and never resets a live count.
func (g *Governor) SetLimit(key string, cfg Config) {
	if key == "" || cfg.Window <= 0 || cfg.MaxRequests < 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits[key] = cfg
}

// RecordRequest counts one request against the key's current window,
// rolling the window first if it has expired.
func (g *Governor) RecordRequest(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.rollWindowLocked(key, g.limitLocked(key))
	state.Count++
}

// IsRateLimited reports whether the key's window is exhausted. It is
// informational: unlike Do, it never fails the caller.
func (g *Governor) IsRateLimited(key string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decideLocked(key)
}

// allow evaluates the limit and, when the call may proceed, records it.
// Both steps happen under one lock hold so a guarded call's check always
// observes the previous call's count.
func (g *Governor) allow(key string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	dec := g.decideLocked(key)
	if dec.Limited {
		return dec
	}

	g.rollWindowLocked(key, g.limitLocked(key)).Count++
	return dec
}

func (g *Governor) decideLocked(key string) Decision {
	cfg := g.limitLocked(key)

	state, ok := g.windows[key]
	if !ok {
		return Decision{}
	}

	now := g.clock()
	if now.Sub(state.WindowStart) >= cfg.Window {
		// Expired window counts as fresh regardless of its stale count.
		return Decision{}
	}

	if state.Count >= cfg.MaxRequests {
		return Decision{
			Limited:    true,
			RetryAfter: state.WindowStart.Add(cfg.Window).Sub(now),
		}
	}
	return Decision{}
}

// rollWindowLocked is the single authoritative window accessor: it creates
// a missing window and restarts an expired one, so the record and check
// paths can never diverge on rollover.
func (g *Governor) rollWindowLocked(key string, cfg Config) *WindowState {
	now := g.clock()

	state, ok := g.windows[key]
	if !ok {
		state = &WindowState{WindowStart: now}
		g.windows[key] = state
		return state
	}

	if now.Sub(state.WindowStart) >= cfg.Window {
		state.Count = 0
		state.WindowStart = now
	}
	return state
}

func (g *Governor) limitLocked(key string) Config {
	if cfg, ok := g.limits[key]; ok {
		return cfg
	}
	return g.defaults
}
