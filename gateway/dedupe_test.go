package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BecasLan/BecasScore-sub002/event"
)

func TestDedupeStoreBasics(t *testing.T) {
	assert := assert.New(t)

	s := NewDedupeStore(10, time.Minute)
	h := event.IdentityHash("abc123")

	assert.False(s.Seen(h))
	s.Record(h, time.Now())
	assert.True(s.Seen(h))
	assert.Equal(1, s.Len())
}

func TestDedupeStoreCapacityBound(t *testing.T) {
	assert := assert.New(t)

	capacity := 100
	s := NewDedupeStore(capacity, time.Hour)

	hashes := make([]event.IdentityHash, 0, capacity+20)
	for i := 0; i < capacity+20; i++ {
		h := event.IdentityHash(fmt.Sprintf("hash-%04d", i))
		hashes = append(hashes, h)
		s.Record(h, time.Now())
	}

	// backing store never exceeds capacity
	assert.LessOrEqual(s.Len(), capacity)

	// the oldest inserted entries are the ones evicted
	for i := 0; i < 20; i++ {
		assert.False(s.Seen(hashes[i]), "expected hash %d to be evicted", i)
	}
	for i := 20; i < capacity+20; i++ {
		assert.True(s.Seen(hashes[i]), "expected hash %d to be retained", i)
	}
}

func TestDedupeStoreSeenDoesNotPromote(t *testing.T) {
	assert := assert.New(t)

	s := NewDedupeStore(2, time.Hour)
	h1 := event.IdentityHash("one")
	h2 := event.IdentityHash("two")
	h3 := event.IdentityHash("three")

	s.Record(h1, time.Now())
	s.Record(h2, time.Now())

	// repeated membership tests must not save h1 from eviction
	assert.True(s.Seen(h1))
	assert.True(s.Seen(h1))

	s.Record(h3, time.Now())
	assert.False(s.Seen(h1))
	assert.True(s.Seen(h2))
	assert.True(s.Seen(h3))
}
