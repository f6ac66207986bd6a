package ratelimiter

import (
	"context"
	"sync"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/ratelimit"
)

// MemoryStore is a mutex-guarded in-process CounterStore. It backs tests
// and single-instance deployments; horizontally scaled instances need the
// Redis or database store so they agree on caller state.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]int64),
	}
}

func (s *MemoryStore) Incr(_ context.Context, key ratelimit.Key, limit int) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	count := s.counters[k]
	if count >= int64(limit) {
		return count, false, nil
	}
	count++
	s.counters[k] = count
	return count, true, nil
}
