package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BecasLan/BecasScore-sub002/event"
	"github.com/BecasLan/BecasScore-sub002/gateway"
	"github.com/BecasLan/BecasScore-sub002/platform"
	"github.com/BecasLan/BecasScore-sub002/reflex"
)

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *recordingAlerter) Alert(ctx context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, text)
	return nil
}

func (a *recordingAlerter) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

type pipelineTestFixture struct {
	pipeline *Pipeline
	mock     *platform.MockClient
	alerts   *recordingAlerter
	slowPath *[]*gateway.StabilizedContext
}

func newPipelineTestFixture() *pipelineTestFixture {
	logger := slog.Default()
	mock := platform.NewMockClient()
	alerts := &recordingAlerter{}

	var enqueued []*gateway.StabilizedContext
	var mu sync.Mutex

	gcfg := gateway.DefaultConfig()
	gcfg.UserLimit.Max = 1000
	gcfg.ChannelLimit.Max = 1000
	gcfg.TenantLimit.Max = 1000

	f := &pipelineTestFixture{
		mock:     mock,
		alerts:   alerts,
		slowPath: &enqueued,
	}
	f.pipeline = &Pipeline{
		Logger:   logger,
		Gateway:  gateway.New(logger, gcfg, mock),
		Reflex:   reflex.New(logger, reflex.DefaultConfig()),
		Platform: mock,
		Alerts:   alerts,
		SlowPath: SlowPathFunc(func(ctx context.Context, sc *gateway.StabilizedContext) error {
			mu.Lock()
			defer mu.Unlock()
			enqueued = append(enqueued, sc)
			return nil
		}),
	}
	return f
}

func message(id, author, channel, tenant, text string) *event.InboundEvent {
	return &event.InboundEvent{
		ID:        id,
		Kind:      event.KindMessage,
		TenantID:  tenant,
		ChannelID: channel,
		AuthorID:  author,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func TestPipelineScamEndToEnd(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	evt := message("msg-1", "scammer", "chan-1", "tenant-1", "free nitro gift! claim here https://discord.gift/abc")

	require.NoError(f.pipeline.ProcessEvent(ctx, evt))

	assert.Equal([]string{"chan-1/msg-1"}, f.mock.Deleted)
	assert.Equal([]string{"scammer"}, f.mock.Banned)
	assert.Equal(1, f.alerts.Count())
	// channel notice warning others off the link
	assert.Equal(1, f.mock.ChannelMessageCount("chan-1"))
	// nothing reached the slow path
	assert.Empty(*f.slowPath)
}

func TestPipelineCrisisDMFallback(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	f.mock.FailDirectMessages = true
	evt := message("msg-1", "user-1", "chan-1", "tenant-1", "i just want to die")

	assert.NoError(f.pipeline.ProcessEvent(ctx, evt))

	// supportive resources land in the origin channel when DMs are closed
	assert.Equal(1, f.mock.ChannelMessageCount("chan-1"))
	assert.Equal(1, f.alerts.Count())
	// and nothing punitive happened
	assert.Empty(f.mock.Deleted)
	assert.Empty(f.mock.Banned)
	assert.Empty(f.mock.Timeouts)
}

func TestPipelineCrisisDMDelivered(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	evt := message("msg-1", "user-1", "chan-1", "tenant-1", "no reason to live anymore")

	assert.NoError(f.pipeline.ProcessEvent(ctx, evt))

	assert.Len(f.mock.DirectMsgs["user-1"], 1)
	assert.Zero(f.mock.ChannelMessageCount("chan-1"))
}

func TestPipelineBenignGoesToSlowPath(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	evt := message("msg-1", "user-1", "chan-1", "tenant-1", "anyone want to queue up later?")

	require.NoError(f.pipeline.ProcessEvent(ctx, evt))

	require.Len(*f.slowPath, 1)
	sc := (*f.slowPath)[0]
	assert.Equal(evt, sc.Event)
	assert.Equal(event.ComputeIdentityHash(evt), sc.Hash)

	// no platform traffic at all for a benign message
	assert.Empty(f.mock.Deleted)
	assert.Empty(f.mock.Banned)
	assert.Zero(f.mock.ChannelMessageCount("chan-1"))
	assert.Zero(f.alerts.Count())
}

func TestPipelineDuplicateDeliverySilent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	evt := message("msg-1", "scammer", "chan-1", "tenant-1", "free nitro gift https://bit.ly/x")

	assert.NoError(f.pipeline.ProcessEvent(ctx, evt))
	// redelivery of the identical event applies no effects twice
	assert.NoError(f.pipeline.ProcessEvent(ctx, evt))

	assert.Len(f.mock.Deleted, 1)
	assert.Len(f.mock.Banned, 1)
	assert.Equal(1, f.alerts.Count())
}

func TestPipelineRepetitionTimeout(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	for i := 1; i <= 4; i++ {
		evt := message(fmt.Sprintf("msg-%d", i), "spammer", "chan-1", "tenant-1", "JOIN MY SERVER NOW")
		assert.NoError(f.pipeline.ProcessEvent(ctx, evt))
	}

	// the first three pass to the slow path, the fourth is actioned
	assert.Len(*f.slowPath, 3)
	assert.Equal([]string{"chan-1/msg-4"}, f.mock.Deleted)
	assert.Equal(5*time.Minute, f.mock.Timeouts["spammer"])
	assert.Empty(f.mock.Banned)
	assert.Len(f.mock.DirectMsgs["spammer"], 1)
}

func TestPipelinePrivilegedAuthorUntouched(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	evt := message("msg-1", "mod-1", "chan-1", "tenant-1", "free nitro gift kys")
	evt.Privileged = true

	assert.NoError(f.pipeline.ProcessEvent(ctx, evt))

	assert.Empty(f.mock.Deleted)
	assert.Empty(f.mock.Banned)
	assert.Zero(f.alerts.Count())
	assert.Len(*f.slowPath, 1)
}

func TestPipelinePanicRecovered(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newPipelineTestFixture()
	f.pipeline.SlowPath = SlowPathFunc(func(ctx context.Context, sc *gateway.StabilizedContext) error {
		panic("slow path exploded")
	})

	evt := message("msg-1", "user-1", "chan-1", "tenant-1", "hello there")
	assert.NotPanics(func() {
		_ = f.pipeline.ProcessEvent(ctx, evt)
	})
}
