// Reflex decision layer: an ordered bank of cheap, deterministic detectors
// that can pre-empt the slow-path reasoning system entirely. No I/O, no
// inference calls; per-event cost is bounded and instrumented.
package reflex

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/BecasLan/BecasScore-sub002/gateway"
	"github.com/BecasLan/BecasScore-sub002/keyword"
)

type Reflex struct {
	logger *slog.Logger
	cfg    Config

	badActors *BadActorSet
	raid      *raidTracker
	repeats   *repetitionTracker

	now func() time.Time
}

// Stats reports current sizes of the layer's private state.
type Stats struct {
	BadActors      int `json:"bad_actors"`
	TrackedTenants int `json:"tracked_tenants"`
	TrackedAuthors int `json:"tracked_authors"`
}

func New(logger *slog.Logger, cfg Config) *Reflex {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reflex{
		logger:    logger.With("component", "reflex"),
		cfg:       cfg,
		badActors: NewBadActorSet(),
		raid:      newRaidTracker(),
		repeats:   newRepetitionTracker(cfg.RepetitionDepth),
		now:       time.Now,
	}
}

// AddKnownBadActor marks an identity as confirmed malicious. Intended to be
// handed to the slow-path system as an explicit hook.
func (r *Reflex) AddKnownBadActor(id string) {
	r.badActors.Add(id)
}

func (r *Reflex) RemoveKnownBadActor(id string) {
	r.badActors.Remove(id)
}

// LoadBadActorsFromFileJSON seeds the bad-actor set at startup.
func (r *Reflex) LoadBadActorsFromFileJSON(p string) error {
	return r.badActors.LoadFromFileJSON(p)
}

// Check runs the detector bank against one stabilized context and returns
// a single response. Pure pattern/arithmetic over in-memory state: there is
// no transient-failure mode, and an empty payload simply falls through to a
// none response.
//
// Detectors run in fixed priority order (cheapest and most dangerous
// first); the first non-none result wins.
func (r *Reflex) Check(sc *gateway.StabilizedContext) *Response {
	start := r.now()
	resp := r.check(sc)
	resp.Elapsed = r.now().Sub(start)
	checkDuration.Observe(resp.Elapsed.Seconds())
	responseCount.WithLabelValues(string(resp.Kind)).Inc()
	return resp
}

func (r *Reflex) check(sc *gateway.StabilizedContext) *Response {
	evt := sc.Event

	// Moderator immunity is evaluated first and is absolute; no detector
	// may override it within this layer.
	if evt.Privileged {
		return &Response{Kind: KindNone, Reason: "privileged immunity", Confidence: 0}
	}

	if r.cfg.EnableBadActor && r.badActors.Contains(evt.AuthorID) {
		detectorHitCount.WithLabelValues("bad_actor").Inc()
		return &Response{
			Kind:       KindInstantBan,
			Reason:     "known bad actor",
			Confidence: 1.0,
			Effects: &Effects{
				DeleteMessage:   true,
				Ban:             true,
				AlertModerators: true,
			},
		}
	}

	if r.cfg.EnableCrisis && matchesCrisisLanguage(evt.Text) {
		detectorHitCount.WithLabelValues("crisis").Inc()
		// supportive only: this is the one category that never deletes or
		// punishes
		return &Response{
			Kind:       KindCrisisSupport,
			Reason:     "crisis language detected",
			Confidence: 0.90,
			Effects: &Effects{
				Notification:    &Notification{Text: crisisResourceText, Target: TargetAuthorDM},
				AlertModerators: true,
			},
		}
	}

	if r.cfg.EnableRaid {
		// pruning keys off the acceptance timestamp so the signal is a
		// property of the event stream, not of detector scheduling
		count, fired := r.raid.Observe(evt.TenantID, sc.AcceptedAt, r.cfg.RaidPerSecond)
		if fired {
			detectorHitCount.WithLabelValues("raid").Inc()
			return &Response{
				Kind:       KindLockdown,
				Reason:     fmt.Sprintf("raid rate exceeded: %d events/sec in tenant", count),
				Confidence: 0.95,
				Effects: &Effects{
					AlertModerators: true,
					Notification: &Notification{
						Text:   "⚠️ Unusually high message volume detected. The moderation team has been alerted and the channel may be locked down.",
						Target: TargetChannel,
					},
				},
			}
		}
	}

	// scam before repetition: strictly more severe
	if r.cfg.EnableScam {
		if match, ok := matchesScamPattern(evt.Text); ok {
			detectorHitCount.WithLabelValues("scam").Inc()
			return &Response{
				Kind:       KindInstantBan,
				Reason:     fmt.Sprintf("scam pattern matched: %q", match),
				Confidence: 0.99,
				Effects: &Effects{
					DeleteMessage:   true,
					Ban:             true,
					AlertModerators: true,
					Notification: &Notification{
						Text:   "A scam message was removed and its author banned. Never click free-gift links.",
						Target: TargetChannel,
					},
				},
			}
		}
	}

	if r.cfg.EnableRepetition && evt.Text != "" {
		matches := r.repeats.Observe(evt.AuthorID, keyword.NormalizeBody(evt.Text), sc.AcceptedAt)
		if matches >= r.cfg.RepetitionThreshold {
			detectorHitCount.WithLabelValues("repetition").Inc()
			return &Response{
				Kind:       KindSpamDelete,
				Reason:     fmt.Sprintf("message repeated %d times recently", matches),
				Confidence: 0.85,
				Effects: &Effects{
					DeleteMessage: true,
					Timeout:       5 * time.Minute,
					Notification: &Notification{
						Text:   "Your repeated messages were removed and you have been timed out for 5 minutes. Please don't spam.",
						Target: TargetAuthorDM,
					},
				},
			}
		}
	}

	if r.cfg.EnableToxicity {
		if score := toxicityScore(evt.Text); score >= r.cfg.ToxicityThreshold {
			detectorHitCount.WithLabelValues("toxicity").Inc()
			return &Response{
				Kind:       KindDeleteAndTimeout,
				Reason:     fmt.Sprintf("extreme toxicity pattern matched (score %d)", score),
				Confidence: 0.95,
				Effects: &Effects{
					DeleteMessage: true,
					Timeout:       10 * time.Minute,
					Notification: &Notification{
						Text:   "Your message was removed for targeted harassment and you have been timed out for 10 minutes.",
						Target: TargetAuthorDM,
					},
				},
			}
		}
	}

	return &Response{Kind: KindNone, Confidence: 0}
}

// Cleanup prunes stale raid and repetition state. Trackers also prune
// opportunistically on access; this catches tenants and authors that went
// quiet.
func (r *Reflex) Cleanup() {
	now := r.now()
	maxAge := r.cfg.TrackerMaxAge
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	tenants := r.raid.Cleanup(now, maxAge)
	authors := r.repeats.Cleanup(now, maxAge)
	if tenants > 0 || authors > 0 {
		r.logger.Debug("cleaned up reflex trackers", "tenants", tenants, "authors", authors)
	}
}

func (r *Reflex) GetStats() Stats {
	return Stats{
		BadActors:      r.badActors.Len(),
		TrackedTenants: r.raid.Len(),
		TrackedAuthors: r.repeats.Len(),
	}
}
