package gateway

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/BecasLan/BecasScore-sub002/event"
)

// DedupeStore remembers the identity hashes of recently accepted events.
// Entries age out by TTL, and once the capacity ceiling is hit the oldest
// inserted entry is evicted first.
type DedupeStore struct {
	entries *expirable.LRU[event.IdentityHash, time.Time]
}

func NewDedupeStore(capacity int, ttl time.Duration) *DedupeStore {
	return &DedupeStore{
		entries: expirable.NewLRU[event.IdentityHash, time.Time](capacity, nil, ttl),
	}
}

// Seen reports whether the hash has already been recorded. Reads go through
// Peek so they never promote an entry: eviction order stays insertion order.
func (s *DedupeStore) Seen(hash event.IdentityHash) bool {
	_, ok := s.entries.Peek(hash)
	return ok
}

// Record marks the hash as processed.
func (s *DedupeStore) Record(hash event.IdentityHash, firstSeen time.Time) {
	s.entries.Add(hash, firstSeen)
}

func (s *DedupeStore) Len() int {
	return s.entries.Len()
}
