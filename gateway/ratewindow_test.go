package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BecasLan/BecasScore-sub002/event"
)

func testEvent(id, author, channel, tenant string) *event.InboundEvent {
	return &event.InboundEvent{
		ID:        id,
		Kind:      event.KindMessage,
		TenantID:  tenant,
		ChannelID: channel,
		AuthorID:  author,
		Text:      "hello",
		CreatedAt: time.Now(),
	}
}

func TestRateLimiterBoundary(t *testing.T) {
	assert := assert.New(t)

	rl := NewRateLimiter(
		RateLimitConfig{Max: 10, Window: time.Minute},
		RateLimitConfig{Max: 100, Window: time.Minute},
		RateLimitConfig{Max: 500, Window: time.Minute},
	)
	evt := testEvent("m", "user-a", "chan-a", "tenant-a")

	for i := 1; i <= 10; i++ {
		d := rl.Evaluate(evt)
		assert.False(d.Limited(), "event %d should pass", i)
		assert.Equal(i, d.User.Count)
	}

	// the 11th is limited, and the count did not overflow past max
	d := rl.Evaluate(evt)
	assert.True(d.UserLimited)
	assert.False(d.ChannelLimited)
	assert.False(d.TenantLimited)
	assert.Equal(10, d.User.Count)
}

func TestRateLimiterWindowReset(t *testing.T) {
	assert := assert.New(t)

	rl := NewRateLimiter(
		RateLimitConfig{Max: 10, Window: time.Minute},
		RateLimitConfig{Max: 100, Window: time.Minute},
		RateLimitConfig{Max: 500, Window: time.Minute},
	)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	evt := testEvent("m", "user-a", "chan-a", "tenant-a")
	for i := 0; i < 15; i++ {
		rl.Evaluate(evt)
	}

	// strictly after windowResetAt the counter restarts at 1, regardless of
	// how many events were rejected during the limited period
	rl.now = func() time.Time { return base.Add(61 * time.Second) }
	d := rl.Evaluate(evt)
	assert.False(d.Limited())
	assert.Equal(1, d.User.Count)
}

func TestRateLimiterIndependentScopes(t *testing.T) {
	assert := assert.New(t)

	rl := NewRateLimiter(
		RateLimitConfig{Max: 2, Window: time.Minute},
		RateLimitConfig{Max: 3, Window: time.Minute},
		RateLimitConfig{Max: 500, Window: time.Minute},
	)

	// two users exhaust their own budgets in the same channel
	a := testEvent("m", "user-a", "chan-1", "tenant-1")
	b := testEvent("m", "user-b", "chan-1", "tenant-1")

	assert.False(rl.Evaluate(a).Limited())
	assert.False(rl.Evaluate(a).Limited())
	assert.True(rl.Evaluate(a).UserLimited)

	// user-b still has budget, but the shared channel window is nearly full
	d := rl.Evaluate(b)
	assert.False(d.Limited())
	assert.Equal(1, d.User.Count)
	assert.Equal(3, d.Channel.Count)

	d = rl.Evaluate(b)
	assert.True(d.ChannelLimited)
	assert.False(d.UserLimited)
}

func TestRateLimiterSweep(t *testing.T) {
	assert := assert.New(t)

	rl := NewRateLimiter(
		RateLimitConfig{Max: 10, Window: time.Minute},
		RateLimitConfig{Max: 100, Window: time.Minute},
		RateLimitConfig{Max: 500, Window: time.Minute},
	)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	rl.Evaluate(testEvent("m", "user-a", "chan-a", "tenant-a"))
	rl.Evaluate(testEvent("m", "user-b", "chan-b", "tenant-b"))
	users, channels, tenants := rl.Sizes()
	assert.Equal(2, users)
	assert.Equal(2, channels)
	assert.Equal(2, tenants)

	rl.now = func() time.Time { return base.Add(2 * time.Minute) }
	removed := rl.Sweep()
	assert.Equal(6, removed)
	users, channels, tenants = rl.Sizes()
	assert.Zero(users)
	assert.Zero(channels)
	assert.Zero(tenants)
}
