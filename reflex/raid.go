package reflex

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// raidTracker maintains a rolling list of event timestamps per tenant,
// pruned to a one-second window. It is a tenant-wide signal: authorship of
// the individual events does not matter.
type raidTracker struct {
	window time.Duration
	pulses *xsync.MapOf[string, *tenantPulse]
}

type tenantPulse struct {
	mu     sync.Mutex
	stamps []time.Time
}

func newRaidTracker() *raidTracker {
	return &raidTracker{
		window: time.Second,
		pulses: xsync.NewMapOf[string, *tenantPulse](),
	}
}

// Observe records one event at the given instant and returns the number of
// events within the window, including this one. When fired is true the
// tenant's list has been cleared, so a sustained flood re-arms only after
// the threshold is crossed again: one lockdown per burst.
func (t *raidTracker) Observe(tenantID string, at time.Time, threshold int) (count int, fired bool) {
	p, _ := t.pulses.LoadOrCompute(tenantID, func() *tenantPulse { return &tenantPulse{} })

	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := at.Add(-t.window)
	kept := p.stamps[:0]
	for _, s := range p.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	p.stamps = append(kept, at)

	count = len(p.stamps)
	if count > threshold {
		p.stamps = p.stamps[:0]
		return count, true
	}
	return count, false
}

// Cleanup drops tenants whose most recent event is older than maxAge.
func (t *raidTracker) Cleanup(now time.Time, maxAge time.Duration) int {
	removed := 0
	t.pulses.Range(func(key string, p *tenantPulse) bool {
		p.mu.Lock()
		stale := len(p.stamps) == 0 || now.Sub(p.stamps[len(p.stamps)-1]) > maxAge
		p.mu.Unlock()
		if stale {
			t.pulses.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (t *raidTracker) Len() int {
	return t.pulses.Size()
}
