package event

import (
	"fmt"
	"time"
)

// Kind of inbound platform event.
type Kind string

const (
	KindMessage    Kind = "message"
	KindReaction   Kind = "reaction"
	KindMemberJoin Kind = "member_join"
)

// Permission bits resolved from the author's role set at receipt time.
type Permissions uint32

const (
	PermAdministrator Permissions = 1 << iota
	PermManageMessages
	PermTimeoutMembers
	PermBanMembers
)

func (p Permissions) Has(flag Permissions) bool {
	return p&flag != 0
}

// Any moderation-capable permission grants reflex immunity.
func (p Permissions) Privileged() bool {
	return p.Has(PermAdministrator) || p.Has(PermManageMessages) || p.Has(PermTimeoutMembers) || p.Has(PermBanMembers)
}

// InboundEvent is an immutable view of one platform event. Owned by the
// caller; the pipeline never mutates it.
type InboundEvent struct {
	ID          string
	Kind        Kind
	TenantID    string
	ChannelID   string
	AuthorID    string
	AuthorIsBot bool
	Text        string
	CreatedAt   time.Time
	// Resolved from the author's permission set when the event was received.
	Privileged bool
}

// ScopeKey is the (tenant, channel, author) triple used to key per-entity
// locks and rate windows.
func (e *InboundEvent) ScopeKey() string {
	return fmt.Sprintf("%s:%s:%s", e.TenantID, e.ChannelID, e.AuthorID)
}
