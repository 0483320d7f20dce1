// Intake gateway for the moderation pipeline: identity hashing, duplicate
// rejection, three-scope rate limiting, and per-scope-key serialization.
//
// Every anomalous input (bot traffic, duplicate delivery, flood) maps to a
// well-defined filtering decision, not an error: Process has no failure
// outcome of its own.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BecasLan/BecasScore-sub002/event"
)

// Config is the gateway's static, process-lifetime configuration.
type Config struct {
	UserLimit    RateLimitConfig
	ChannelLimit RateLimitConfig
	TenantLimit  RateLimitConfig

	DedupeCapacity int
	DedupeTTL      time.Duration

	// LockDeadline is the auto-release safety valve on per-scope-key locks.
	LockDeadline time.Duration

	SweepInterval time.Duration

	// SelfID is the agent's own platform identity. Its traffic, like all
	// automated-identity traffic, never counts against dedup or rate budgets.
	SelfID string
}

func DefaultConfig() Config {
	return Config{
		UserLimit:      RateLimitConfig{Max: 10, Window: time.Minute},
		ChannelLimit:   RateLimitConfig{Max: 100, Window: time.Minute},
		TenantLimit:    RateLimitConfig{Max: 500, Window: time.Minute},
		DedupeCapacity: 10_000,
		DedupeTTL:      5 * time.Minute,
		LockDeadline:   5 * time.Second,
		SweepInterval:  time.Minute,
	}
}

// Notifier delivers best-effort operational notices back to the platform.
type Notifier interface {
	SendChannelMessage(ctx context.Context, channelID, text string) error
}

// StabilizedContext is the gateway's output for an accepted event.
// Immutable once produced.
type StabilizedContext struct {
	Event      *event.InboundEvent
	Hash       event.IdentityHash
	AcceptedAt time.Time

	// Window states at acceptance time, for downstream observability.
	User    WindowSnapshot
	Channel WindowSnapshot
	Tenant  WindowSnapshot
}

type Gateway struct {
	logger   *slog.Logger
	cfg      Config
	dedupe   *DedupeStore
	limiter  *RateLimiter
	locks    *KeyLock
	notifier Notifier

	now func() time.Time
}

// Stats reports current map sizes for observability. Process-lifetime only.
type Stats struct {
	DedupeEntries  int `json:"dedupe_entries"`
	UserWindows    int `json:"user_windows"`
	ChannelWindows int `json:"channel_windows"`
	TenantWindows  int `json:"tenant_windows"`
	ActiveLocks    int `json:"active_locks"`
}

func New(logger *slog.Logger, cfg Config, notifier Notifier) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		logger:   logger.With("component", "gateway"),
		cfg:      cfg,
		dedupe:   NewDedupeStore(cfg.DedupeCapacity, cfg.DedupeTTL),
		limiter:  NewRateLimiter(cfg.UserLimit, cfg.ChannelLimit, cfg.TenantLimit),
		locks:    NewKeyLock(cfg.LockDeadline),
		notifier: notifier,
		now:      time.Now,
	}
}

// Process runs the intake stages for one inbound event. A nil context means
// the event was filtered (automated author, duplicate, or rate-limited);
// filtering is a normal outcome, never an error.
//
// For an accepted event the scope key's lock is still held when Process
// returns; the caller must invoke release after it has finished updating
// per-author/per-tenant downstream state, so that events sharing a scope
// key observe that state in lock-acquisition order.
func (g *Gateway) Process(ctx context.Context, evt *event.InboundEvent) (*StabilizedContext, func()) {
	// automated identities never count against dedup or rate budgets
	if evt.AuthorIsBot || (g.cfg.SelfID != "" && evt.AuthorID == g.cfg.SelfID) {
		dropCount.WithLabelValues("bot").Inc()
		return nil, nil
	}

	hash := event.ComputeIdentityHash(evt)
	if g.dedupe.Seen(hash) {
		dropCount.WithLabelValues("duplicate").Inc()
		return nil, nil
	}

	release, ok := g.locks.Acquire(ctx, evt.ScopeKey())
	if !ok {
		dropCount.WithLabelValues("cancelled").Inc()
		return nil, nil
	}

	// re-check after the lock wait: a concurrent delivery of the same event
	// can pass the first membership test before our hash is recorded
	if g.dedupe.Seen(hash) {
		dropCount.WithLabelValues("duplicate").Inc()
		release()
		return nil, nil
	}

	decision := g.limiter.Evaluate(evt)
	if decision.Limited() {
		// record the hash so a retry loop of the same delivery stays silent
		g.dedupe.Record(hash, g.now())
		g.dropLimited(ctx, evt, decision)
		release()
		return nil, nil
	}

	g.dedupe.Record(hash, g.now())
	acceptCount.Inc()
	return &StabilizedContext{
		Event:      evt,
		Hash:       hash,
		AcceptedAt: g.now(),
		User:       decision.User,
		Channel:    decision.Channel,
		Tenant:     decision.Tenant,
	}, release
}

// dropLimited accounts for a rate-limited event and, for the user scope
// only, sends a single throttle notice to the originating channel.
// Channel- and tenant-scope limiting stays silent on purpose: a limited
// channel or tenant is the signature of a flood, and answering a flood
// with more messages would amplify it.
func (g *Gateway) dropLimited(ctx context.Context, evt *event.InboundEvent, d RateDecision) {
	switch {
	case d.UserLimited:
		dropCount.WithLabelValues("user_rate").Inc()
		g.logger.Info("user rate limited", "author", evt.AuthorID, "channel", evt.ChannelID, "count", d.User.Count)
		if g.notifier != nil {
			notice := fmt.Sprintf("<@%s> you're sending messages too quickly. Please slow down for a bit.", evt.AuthorID)
			if err := g.notifier.SendChannelMessage(ctx, evt.ChannelID, notice); err != nil {
				// best-effort only
				g.logger.Warn("sending throttle notice failed", "err", err, "channel", evt.ChannelID)
			} else {
				throttleNoticeCount.Inc()
			}
		}
	case d.ChannelLimited:
		dropCount.WithLabelValues("channel_rate").Inc()
		g.logger.Info("channel rate limited", "channel", evt.ChannelID, "count", d.Channel.Count)
	case d.TenantLimited:
		dropCount.WithLabelValues("tenant_rate").Inc()
		g.logger.Warn("tenant rate limited, suspected flood", "tenant", evt.TenantID, "count", d.Tenant.Count)
	}
}

func (g *Gateway) GetStats() Stats {
	users, channels, tenants := g.limiter.Sizes()
	return Stats{
		DedupeEntries:  g.dedupe.Len(),
		UserWindows:    users,
		ChannelWindows: channels,
		TenantWindows:  tenants,
		ActiveLocks:    g.locks.Active(),
	}
}
