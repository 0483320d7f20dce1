package reflex

import "time"

// ResponseKind is the closed set of reflex decisions.
type ResponseKind string

const (
	KindNone             ResponseKind = "none"
	KindInstantBan       ResponseKind = "instant_ban"
	KindCrisisSupport    ResponseKind = "crisis_support"
	KindLockdown         ResponseKind = "lockdown"
	KindSpamDelete       ResponseKind = "spam_delete"
	KindDeleteAndTimeout ResponseKind = "delete_and_timeout"
)

// NotifyTarget selects where a notification effect is delivered.
type NotifyTarget string

const (
	// TargetAuthorDM delivers privately to the author, with a public-channel
	// fallback if private delivery fails.
	TargetAuthorDM NotifyTarget = "author_dm"
	TargetChannel  NotifyTarget = "channel"
)

type Notification struct {
	Text   string
	Target NotifyTarget
}

// Effects is the bundle of moderation directives attached to a non-none
// response. The reflex layer only produces directives; executing them is
// the caller's concern.
type Effects struct {
	DeleteMessage   bool
	Timeout         time.Duration
	Ban             bool
	Notification    *Notification
	AlertModerators bool
}

// Response is produced fresh per event and never mutated after return.
type Response struct {
	Kind       ResponseKind
	Reason     string
	Confidence float64
	Elapsed    time.Duration
	Effects    *Effects
}

// Preempt reports whether the response short-circuits the slow path.
func (r *Response) Preempt() bool {
	return r.Kind != KindNone
}
