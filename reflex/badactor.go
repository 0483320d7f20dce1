package reflex

import (
	"encoding/json"
	"io"
	"os"
	"sync"
)

// BadActorSet is the in-memory set of previously confirmed malicious
// identities. Populated externally (eg, by the slow-path system after a
// confirmed scam ban) through the add/remove hooks.
type BadActorSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewBadActorSet() *BadActorSet {
	return &BadActorSet{
		ids: make(map[string]struct{}),
	}
}

func (s *BadActorSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *BadActorSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *BadActorSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *BadActorSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// LoadFromFileJSON seeds the set from a JSON array of identity strings.
func (s *BadActorSet) LoadFromFileJSON(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}
