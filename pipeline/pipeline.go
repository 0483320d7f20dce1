// Package pipeline composes the intake gateway and the reflex layer, and
// executes the side effects a reflex response directs.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/BecasLan/BecasScore-sub002/event"
	"github.com/BecasLan/BecasScore-sub002/gateway"
	"github.com/BecasLan/BecasScore-sub002/platform"
	"github.com/BecasLan/BecasScore-sub002/reflex"
)

// Alerter is the moderation-alert sink. Resolution of the destination
// channel is the implementation's responsibility, not the pipeline's.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// SlowPath receives stabilized contexts the reflex layer declined to act
// on, for inference-backed moderation out of scope here.
type SlowPath interface {
	Enqueue(ctx context.Context, sc *gateway.StabilizedContext) error
}

// SlowPathFunc adapts a function to the SlowPath interface.
type SlowPathFunc func(ctx context.Context, sc *gateway.StabilizedContext) error

func (f SlowPathFunc) Enqueue(ctx context.Context, sc *gateway.StabilizedContext) error {
	return f(ctx, sc)
}

// Pipeline wires intake, reflex decisions, and effect execution. All state
// is explicitly owned and injected at construction; independent instances
// are fully isolated.
type Pipeline struct {
	Logger   *slog.Logger
	Gateway  *gateway.Gateway
	Reflex   *reflex.Reflex
	Platform platform.Client
	Alerts   Alerter
	SlowPath SlowPath
}

// ProcessEvent runs one inbound event through intake and reflex decision,
// applying side effects for pre-empting responses and handing everything
// else to the slow path. A filtered event is a normal, silent outcome.
func (p *Pipeline) ProcessEvent(ctx context.Context, evt *event.InboundEvent) error {
	// similar to an HTTP server, we want to recover any panics from
	// detector execution
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("event processing exception", "err", r, "event", evt.ID, "tenant", evt.TenantID)
			panicCount.Inc()
		}
	}()

	sc, release := p.Gateway.Process(ctx, evt)
	if sc == nil {
		return nil
	}

	// the reflex check must run before the scope key's lock is released so
	// per-author and per-tenant detector state is updated in lock order
	resp := p.Reflex.Check(sc)
	release()

	if !resp.Preempt() {
		if p.SlowPath != nil {
			if err := p.SlowPath.Enqueue(ctx, sc); err != nil {
				p.Logger.Error("slow path hand-off failed", "err", err, "event", evt.ID)
				return err
			}
		}
		return nil
	}

	p.applyEffects(ctx, sc, resp)
	p.canonicalLogLine(sc, resp)
	return nil
}

// applyEffects executes the directives on a pre-empting response. Every
// effect is best-effort: a platform rejection (eg, banning an author who
// already left) is logged and never aborts the remaining effects.
func (p *Pipeline) applyEffects(ctx context.Context, sc *gateway.StabilizedContext, resp *reflex.Response) {
	evt := sc.Event
	eff := resp.Effects
	if eff == nil {
		return
	}

	if eff.DeleteMessage && p.Platform != nil {
		if err := p.Platform.DeleteMessage(ctx, evt.ChannelID, evt.ID); err != nil {
			p.Logger.Error("deleting message failed", "err", err, "event", evt.ID)
		} else {
			effectCount.WithLabelValues("delete").Inc()
		}
	}

	if eff.Timeout > 0 && p.Platform != nil {
		if err := p.Platform.TimeoutAuthor(ctx, evt.TenantID, evt.AuthorID, eff.Timeout, resp.Reason); err != nil {
			p.Logger.Error("timing out author failed", "err", err, "author", evt.AuthorID)
		} else {
			effectCount.WithLabelValues("timeout").Inc()
		}
	}

	if eff.Ban && p.Platform != nil {
		if err := p.Platform.BanAuthor(ctx, evt.TenantID, evt.AuthorID, resp.Reason); err != nil {
			p.Logger.Error("banning author failed", "err", err, "author", evt.AuthorID)
		} else {
			effectCount.WithLabelValues("ban").Inc()
		}
	}

	if eff.Notification != nil && p.Platform != nil {
		p.deliverNotification(ctx, evt, eff.Notification)
	}

	if eff.AlertModerators && p.Alerts != nil {
		if err := p.Alerts.Alert(ctx, alertBody(sc, resp)); err != nil {
			p.Logger.Error("sending moderation alert failed", "err", err)
		} else {
			effectCount.WithLabelValues("alert").Inc()
		}
	}
}

// deliverNotification sends to the requested target. Author-DM targets
// fall back to the origin channel when private delivery fails (required
// for crisis-support notices; harmless for the rest).
func (p *Pipeline) deliverNotification(ctx context.Context, evt *event.InboundEvent, n *reflex.Notification) {
	switch n.Target {
	case reflex.TargetAuthorDM:
		if err := p.Platform.SendDirectMessage(ctx, evt.AuthorID, n.Text); err != nil {
			p.Logger.Warn("direct notification failed, falling back to channel", "err", err, "author", evt.AuthorID)
			if err := p.Platform.SendChannelMessage(ctx, evt.ChannelID, n.Text); err != nil {
				p.Logger.Error("channel fallback notification failed", "err", err, "channel", evt.ChannelID)
				return
			}
		}
		effectCount.WithLabelValues("notify").Inc()
	case reflex.TargetChannel:
		if err := p.Platform.SendChannelMessage(ctx, evt.ChannelID, n.Text); err != nil {
			p.Logger.Error("channel notification failed", "err", err, "channel", evt.ChannelID)
			return
		}
		effectCount.WithLabelValues("notify").Inc()
	}
}

// one structured line per actioned event, for log-based accounting
func (p *Pipeline) canonicalLogLine(sc *gateway.StabilizedContext, resp *reflex.Response) {
	p.Logger.Info("reflex action",
		"event", sc.Event.ID,
		"tenant", sc.Event.TenantID,
		"channel", sc.Event.ChannelID,
		"author", sc.Event.AuthorID,
		"kind", resp.Kind,
		"reason", resp.Reason,
		"confidence", resp.Confidence,
		"elapsed", resp.Elapsed,
	)
}
