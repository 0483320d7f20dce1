package gateway

import (
	"sync"
	"time"

	"github.com/BecasLan/BecasScore-sub002/event"
)

// RateLimitConfig bounds one scope family (user, channel, or tenant).
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// window is one fixed rate window. It resets wholesale the first time it is
// touched after ResetAt has passed; this is not a sliding window.
type window struct {
	count   int
	resetAt time.Time
}

// WindowSnapshot is a read-only copy of one window's state at event
// acceptance time, carried on the StabilizedContext for observability.
type WindowSnapshot struct {
	Scope   string    `json:"scope"`
	Key     string    `json:"key"`
	Count   int       `json:"count"`
	Max     int       `json:"max"`
	ResetAt time.Time `json:"reset_at"`
}

// RateDecision is the outcome of evaluating all three scopes for one event.
type RateDecision struct {
	UserLimited    bool
	ChannelLimited bool
	TenantLimited  bool

	User    WindowSnapshot
	Channel WindowSnapshot
	Tenant  WindowSnapshot
}

func (d RateDecision) Limited() bool {
	return d.UserLimited || d.ChannelLimited || d.TenantLimited
}

// RateLimiter holds the three window families. All three families share one
// mutex: the limit check and the conditional triple increment for a single
// event form one critical section, so a window can never exceed Max without
// some caller having observed the limited decision that would have caused
// the overflow.
type RateLimiter struct {
	mu sync.Mutex

	user    RateLimitConfig
	channel RateLimitConfig
	tenant  RateLimitConfig

	userWindows    map[string]*window
	channelWindows map[string]*window
	tenantWindows  map[string]*window

	now func() time.Time
}

func NewRateLimiter(user, channel, tenant RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		user:           user,
		channel:        channel,
		tenant:         tenant,
		userWindows:    make(map[string]*window),
		channelWindows: make(map[string]*window),
		tenantWindows:  make(map[string]*window),
		now:            time.Now,
	}
}

// Evaluate checks the event against all three scopes and, when none is
// limited, increments all three counters. Snapshots reflect post-increment
// state for accepted events.
func (rl *RateLimiter) Evaluate(evt *event.InboundEvent) RateDecision {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	uw := touch(rl.userWindows, evt.AuthorID, rl.user.Window, now)
	cw := touch(rl.channelWindows, evt.ChannelID, rl.channel.Window, now)
	tw := touch(rl.tenantWindows, evt.TenantID, rl.tenant.Window, now)

	d := RateDecision{
		UserLimited:    uw.count >= rl.user.Max,
		ChannelLimited: cw.count >= rl.channel.Max,
		TenantLimited:  tw.count >= rl.tenant.Max,
	}
	if !d.Limited() {
		uw.count++
		cw.count++
		tw.count++
	}
	d.User = snapshot("user", evt.AuthorID, uw, rl.user.Max)
	d.Channel = snapshot("channel", evt.ChannelID, cw, rl.channel.Max)
	d.Tenant = snapshot("tenant", evt.TenantID, tw, rl.tenant.Max)
	return d
}

// touch returns the live window for key, resetting it first if its deadline
// has passed.
func touch(m map[string]*window, key string, dur time.Duration, now time.Time) *window {
	w, ok := m[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(dur)}
		m[key] = w
	}
	return w
}

func snapshot(scope, key string, w *window, max int) WindowSnapshot {
	return WindowSnapshot{
		Scope:   scope,
		Key:     key,
		Count:   w.count,
		Max:     max,
		ResetAt: w.resetAt,
	}
}

// Sweep drops windows whose reset deadline has passed, returning the number
// removed. The hot path only ever resets windows in place; this keeps the
// maps bounded in the steady state.
func (rl *RateLimiter) Sweep() int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for _, m := range []map[string]*window{rl.userWindows, rl.channelWindows, rl.tenantWindows} {
		for k, w := range m {
			if !now.Before(w.resetAt) {
				delete(m, k)
				removed++
			}
		}
	}
	return removed
}

func (rl *RateLimiter) Sizes() (users, channels, tenants int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.userWindows), len(rl.channelWindows), len(rl.tenantWindows)
}
