package governor

import "context"

// Deduplicate collapses overlapping calls for the same key into a single
// producer invocation whose outcome every caller shares. The in-flight
// entry is released once the producer settles, success or failure, so a
// later call starts a brand-new invocation. Different keys never block
// each other.
func (g *Governor) Deduplicate(ctx context.Context, key string, producer Producer) (any, error) {
	g.mu.Lock()
	g.pending[key]++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		if g.pending[key] <= 1 {
			delete(g.pending, key)
		} else {
			g.pending[key]--
		}
		g.mu.Unlock()
	}()

	var executed bool
	value, err, _ := g.group.Do(key, func() (any, error) {
		executed = true
		return producer(ctx)
	})
	if !executed {
		g.observe(EventCoalesced, key)
	}
	return value, err
}
