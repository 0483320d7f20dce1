package reflex

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// repetitionTracker keeps the last N normalized message bodies per author
// for spam repetition detection.
type repetitionTracker struct {
	depth   int
	authors *xsync.MapOf[string, *authorHistory]
}

type authorHistory struct {
	mu      sync.Mutex
	bodies  []string
	touched time.Time
}

func newRepetitionTracker(depth int) *repetitionTracker {
	return &repetitionTracker{
		depth:   depth,
		authors: xsync.NewMapOf[string, *authorHistory](),
	}
}

// Observe counts how many of the author's stored bodies match the current
// normalized body, then appends it. The current body is never counted
// against itself: with threshold 3, the fourth identical message fires.
func (t *repetitionTracker) Observe(authorID, normalized string, at time.Time) (matches int) {
	h, _ := t.authors.LoadOrCompute(authorID, func() *authorHistory { return &authorHistory{} })

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, b := range h.bodies {
		if b == normalized {
			matches++
		}
	}
	h.bodies = append(h.bodies, normalized)
	if len(h.bodies) > t.depth {
		h.bodies = h.bodies[len(h.bodies)-t.depth:]
	}
	h.touched = at
	return matches
}

// Cleanup drops authors idle for longer than maxAge.
func (t *repetitionTracker) Cleanup(now time.Time, maxAge time.Duration) int {
	removed := 0
	t.authors.Range(func(key string, h *authorHistory) bool {
		h.mu.Lock()
		stale := now.Sub(h.touched) > maxAge
		h.mu.Unlock()
		if stale {
			t.authors.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (t *repetitionTracker) Len() int {
	return t.authors.Size()
}
