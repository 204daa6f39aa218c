package preference

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold is the visitor count at which Set first drops expired
// entries of other visitors.
const sweepThreshold = 10000

type memoryEntry struct {
	values  map[string]string
	expires time.Time
}

// MemoryStore is an in-process stand-in for RedisStore, used when no Redis
// is configured. Entries expire the same way.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	visitors map[string]*memoryEntry
	sweepAt  int
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		visitors: make(map[string]*memoryEntry),
		sweepAt:  sweepThreshold,
	}
}

// entry returns the live entry for visitorID, dropping it if expired.
// Callers hold mu.
func (s *MemoryStore) entry(visitorID string) *memoryEntry {
	e, ok := s.visitors[visitorID]
	if !ok {
		return nil
	}
	if s.ttl > 0 && !s.now().Before(e.expires) {
		delete(s.visitors, visitorID)
		return nil
	}
	return e
}

// sweep drops every expired entry and moves the next sweep out to twice the
// surviving count. Callers hold mu.
func (s *MemoryStore) sweep() {
	if s.ttl > 0 {
		now := s.now()
		for id, e := range s.visitors {
			if !now.Before(e.expires) {
				delete(s.visitors, id)
			}
		}
	}
	s.sweepAt = max(sweepThreshold, 2*len(s.visitors))
}

func (s *MemoryStore) Get(_ context.Context, visitorID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(visitorID)
	if e == nil {
		return "", false, nil
	}
	v, ok := e.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, visitorID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(visitorID)
	if e == nil {
		if len(s.visitors) >= s.sweepAt {
			s.sweep()
		}
		e = &memoryEntry{values: make(map[string]string)}
		s.visitors[visitorID] = e
	}
	e.values[key] = value
	e.expires = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, visitorID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(visitorID)
	if e == nil {
		return nil
	}
	for _, k := range keys {
		delete(e.values, k)
	}
	if len(e.values) == 0 {
		delete(s.visitors, visitorID)
	}
	return nil
}
