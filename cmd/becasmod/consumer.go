package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/BecasLan/BecasScore-sub002/event"
	"github.com/BecasLan/BecasScore-sub002/pipeline"
)

var streamCursorKey = "becasmod/seq"

// EventConsumer subscribes to the platform's websocket event stream and
// feeds each frame to the pipeline.
type EventConsumer struct {
	Logger      *slog.Logger
	RedisClient *redis.Client
	Pipeline    *pipeline.Pipeline
	Host        string
	Parallelism int

	// lastSeq is the most recent stream sequence number we've begun to
	// handle, periodically persisted to redis when redis is present. The
	// value is best-effort; use atomics when touching it.
	lastSeq int64
}

// streamFrame is one event off the wire.
type streamFrame struct {
	Seq   int64  `json:"seq"`
	Type  string `json:"type"`
	Event struct {
		ID          string    `json:"id"`
		TenantID    string    `json:"tenant_id"`
		ChannelID   string    `json:"channel_id"`
		AuthorID    string    `json:"author_id"`
		AuthorIsBot bool      `json:"author_is_bot"`
		Permissions uint32    `json:"permissions"`
		Text        string    `json:"text"`
		CreatedAt   time.Time `json:"created_at"`
	} `json:"event"`
}

func (ec *EventConsumer) Run(ctx context.Context) error {

	if ec.Pipeline == nil {
		return fmt.Errorf("nil pipeline")
	}

	cur, err := ec.ReadLastCursor(ctx)
	if err != nil {
		return err
	}

	u, err := url.Parse(ec.Host)
	if err != nil {
		return fmt.Errorf("invalid event stream URI: %w", err)
	}
	if cur != 0 {
		u.RawQuery = fmt.Sprintf("cursor=%d", cur)
	}
	ec.Logger.Info("subscribing to platform event stream", "upstream", ec.Host, "cursor", cur)
	con, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), http.Header{
		"User-Agent": []string{fmt.Sprintf("becasmod/%s", versioninfo.Short())},
	})
	if err != nil {
		return fmt.Errorf("subscribing to event stream failed (dialing): %w", err)
	}
	defer con.Close()

	go func() {
		<-ctx.Done()
		_ = con.Close()
	}()

	parallelism := ec.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	sem := make(chan struct{}, parallelism)

	for {
		var frame streamFrame
		if err := con.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}
		atomic.StoreInt64(&ec.lastSeq, frame.Seq)

		evt := frameToEvent(&frame)
		if evt == nil {
			continue
		}

		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			if err := ec.Pipeline.ProcessEvent(ctx, evt); err != nil {
				ec.Logger.Error("processing event failed", "event", evt.ID, "err", err)
			}
		}()
	}
}

func frameToEvent(frame *streamFrame) *event.InboundEvent {
	var kind event.Kind
	switch frame.Type {
	case "MESSAGE_CREATE":
		kind = event.KindMessage
	case "MESSAGE_REACTION_ADD":
		kind = event.KindReaction
	case "GUILD_MEMBER_ADD":
		kind = event.KindMemberJoin
	default:
		return nil
	}
	perms := event.Permissions(frame.Event.Permissions)
	return &event.InboundEvent{
		ID:          frame.Event.ID,
		Kind:        kind,
		TenantID:    frame.Event.TenantID,
		ChannelID:   frame.Event.ChannelID,
		AuthorID:    frame.Event.AuthorID,
		AuthorIsBot: frame.Event.AuthorIsBot,
		Text:        frame.Event.Text,
		CreatedAt:   frame.Event.CreatedAt,
		Privileged:  perms.Privileged(),
	}
}

func (ec *EventConsumer) ReadLastCursor(ctx context.Context) (int64, error) {
	// if redis isn't configured, just skip
	if ec.RedisClient == nil {
		ec.Logger.Info("redis not configured, skipping cursor read")
		return 0, nil
	}

	val, err := ec.RedisClient.Get(ctx, streamCursorKey).Int64()
	if err == redis.Nil {
		ec.Logger.Info("no pre-existing cursor in redis")
		return 0, nil
	}
	ec.Logger.Info("found prior stream cursor in redis", "seq", val)
	return val, err
}

func (ec *EventConsumer) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if ec.RedisClient == nil {
		return nil
	}
	lastSeq := atomic.LoadInt64(&ec.lastSeq)
	if lastSeq <= 0 {
		return nil
	}
	return ec.RedisClient.Set(ctx, streamCursorKey, lastSeq, 14*24*time.Hour).Err()
}

// RunPersistCursor persists the current cursor state every 5 seconds.
func (ec *EventConsumer) RunPersistCursor(ctx context.Context) error {
	if ec.RedisClient == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// final flush before shutdown
			if err := ec.PersistCursor(context.Background()); err != nil {
				ec.Logger.Error("failed to persist cursor", "err", err)
			}
			return nil
		case <-ticker.C:
			if err := ec.PersistCursor(ctx); err != nil {
				ec.Logger.Error("failed to persist cursor", "err", err)
			}
		}
	}
}
