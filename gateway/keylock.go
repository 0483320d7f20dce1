package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// KeyLock is a table of per-scope-key mutexes with FIFO waiter queues and
// an auto-release deadline. If a holder never releases, the next waiter is
// force-granted after the deadline: forward progress takes priority over
// strict mutual exclusion in the pathological case.
type KeyLock struct {
	deadline time.Duration
	entries  *xsync.MapOf[string, *lockEntry]
}

type lockEntry struct {
	mu sync.Mutex
	// holders is normally 0 or 1; force-grants can push it higher until the
	// stale holder's release drains it back down.
	holders int
	waiters []chan struct{}
	// set when the entry has been dropped from the table; acquirers that
	// raced the removal must reload.
	gone bool
}

func NewKeyLock(deadline time.Duration) *KeyLock {
	return &KeyLock{
		deadline: deadline,
		entries:  xsync.NewMapOf[string, *lockEntry](),
	}
}

// Acquire blocks until the key's lock is granted, queueing in FIFO order
// behind any in-flight holder. Returns the release func and true, or nil
// and false if ctx was cancelled while waiting.
func (kl *KeyLock) Acquire(ctx context.Context, key string) (func(), bool) {
	for {
		e, _ := kl.entries.LoadOrCompute(key, func() *lockEntry { return &lockEntry{} })

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		if e.holders == 0 && len(e.waiters) == 0 {
			e.holders = 1
			e.mu.Unlock()
			return func() { kl.release(key, e) }, true
		}
		granted := make(chan struct{})
		e.waiters = append(e.waiters, granted)
		e.mu.Unlock()

		timer := time.NewTimer(kl.deadline)
		select {
		case <-granted:
			timer.Stop()
			return func() { kl.release(key, e) }, true
		case <-timer.C:
			if kl.forceGrant(e, granted) {
				lockForceGrantCount.Inc()
			}
			return func() { kl.release(key, e) }, true
		case <-ctx.Done():
			timer.Stop()
			if kl.withdraw(key, e, granted) {
				return nil, false
			}
			// grant landed while we were cancelling; hold it so the caller
			// can release cleanly
			return func() { kl.release(key, e) }, true
		}
	}
}

// forceGrant claims the lock for a waiter whose deadline expired. Reports
// whether an actual force-grant happened (as opposed to a grant that raced
// the timer).
func (kl *KeyLock) forceGrant(e *lockEntry, granted chan struct{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-granted:
		// ownership was transferred just as the timer fired
		return false
	default:
	}
	e.removeWaiter(granted)
	e.holders++
	return true
}

// withdraw removes a cancelled waiter from the queue. Reports true if the
// waiter left without the lock; false if a grant raced the cancellation.
func (kl *KeyLock) withdraw(key string, e *lockEntry, granted chan struct{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-granted:
		return false
	default:
	}
	e.removeWaiter(granted)
	return true
}

func (kl *KeyLock) release(key string, e *lockEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.waiters) > 0 {
		// hand ownership to the head of the queue; holder count is unchanged
		next := e.waiters[0]
		e.waiters = e.waiters[1:]
		close(next)
		return
	}
	e.holders--
	if e.holders <= 0 {
		e.holders = 0
		e.gone = true
		kl.entries.Delete(key)
	}
}

// caller must hold e.mu
func (e *lockEntry) removeWaiter(ch chan struct{}) {
	for i, w := range e.waiters {
		if w == ch {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return
		}
	}
}

// Active returns the number of keys with a live lock entry.
func (kl *KeyLock) Active() int {
	return kl.entries.Size()
}
