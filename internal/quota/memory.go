package quota

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// memoryStore is the in-process fallback counter for non-production execution
// when the shared store is not configured. It is not durable and not shared
// across processes; a single mutex serializes all map mutation.
type memoryStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
	now     func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// NewMemoryLedger builds a Ledger backed by a process-local counter. Dev-only.
func NewMemoryLedger(limits map[domain.Tier]Limit, dayLoc *time.Location, logger zerolog.Logger) (*Ledger, error) {
	return NewLedger(newMemoryStore(), limits, dayLoc, logger)
}

func (s *memoryStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return s.counts[key], nil
}

func (s *memoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.counts[key]++
	if s.counts[key] == 1 {
		s.expires[key] = s.now().Add(ttl)
	}
	return s.counts[key], nil
}

func (s *memoryStore) pruneLocked() {
	now := s.now()
	for key, deadline := range s.expires {
		if now.After(deadline) {
			delete(s.counts, key)
			delete(s.expires, key)
		}
	}
}
