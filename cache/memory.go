package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	tags      []string
}

// MemoryStore is a process-local Store. Entries are lost on restart and are not
// shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries map[string]memoryEntry
	tags    map[string]map[string]struct{}
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock:   clock,
		entries: make(map[string]memoryEntry),
		tags:    make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.clock.Now().Before(e.expiresAt) {
		s.removeLocked(key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(key)
	stored := make([]byte, len(value))
	copy(stored, value)
	s.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: s.clock.Now().Add(ttl),
		tags:      append([]string(nil), tags...),
	}
	for _, tag := range tags {
		members, ok := s.tags[tag]
		if !ok {
			members = make(map[string]struct{})
			s.tags[tag] = members
		}
		members[key] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.removeLocked(key)
	}
	return nil
}

func (s *MemoryStore) InvalidateTags(_ context.Context, tags ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		for key := range s.tags[tag] {
			s.removeLocked(key)
		}
		delete(s.tags, tag)
	}
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			s.removeLocked(key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) removeLocked(key string) {
	e, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	for _, tag := range e.tags {
		if members, ok := s.tags[tag]; ok {
			delete(members, key)
			if len(members) == 0 {
				delete(s.tags, tag)
			}
		}
	}
}
