package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdentityHashStable(t *testing.T) {
	assert := assert.New(t)

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e1 := &InboundEvent{ID: "msg-1", AuthorID: "user-1", ChannelID: "chan-1", CreatedAt: ts}
	e2 := &InboundEvent{ID: "msg-1", AuthorID: "user-1", ChannelID: "chan-1", CreatedAt: ts, Text: "delivery two"}

	// identity is (id, author, channel, timestamp); payload differences
	// from alternate delivery paths don't matter
	assert.Equal(ComputeIdentityHash(e1), ComputeIdentityHash(e2))
	assert.Len(string(ComputeIdentityHash(e1)), 64)
}

func TestIdentityHashDistinct(t *testing.T) {
	assert := assert.New(t)

	ts := time.Now()
	base := &InboundEvent{ID: "msg-1", AuthorID: "user-1", ChannelID: "chan-1", CreatedAt: ts}

	other := *base
	other.ID = "msg-2"
	assert.NotEqual(ComputeIdentityHash(base), ComputeIdentityHash(&other))

	other = *base
	other.AuthorID = "user-2"
	assert.NotEqual(ComputeIdentityHash(base), ComputeIdentityHash(&other))

	other = *base
	other.CreatedAt = ts.Add(time.Millisecond)
	assert.NotEqual(ComputeIdentityHash(base), ComputeIdentityHash(&other))
}

func TestPermissionsPrivileged(t *testing.T) {
	assert := assert.New(t)

	assert.False(Permissions(0).Privileged())
	assert.True(PermAdministrator.Privileged())
	assert.True(PermManageMessages.Privileged())
	assert.True(PermTimeoutMembers.Privileged())
	assert.True(PermBanMembers.Privileged())
	assert.True((PermAdministrator | PermBanMembers).Privileged())
}
