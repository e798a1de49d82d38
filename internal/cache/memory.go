package cache

import (
	"context"
	"sync"

	"github.com/mkravets/orbita-api/internal/aim"
)

// MemoryStore is a process-local Store. It backs tests and single-instance
// deployments without Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]aim.Aim
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]aim.Aim)}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) ([]aim.Aim, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	aims, ok := s.data[key.String()]
	if !ok {
		return nil, false, nil
	}
	return copyAims(aims), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key Key, aims []aim.Aim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key.String()] = copyAims(aims)
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, keys ...Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.data, k.String())
	}
	return nil
}
