package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	storedAt time.Time
}

// MemoryStore mantém as entradas no processo.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	if maxAge <= 0 {
		return nil, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	if expired(it.storedAt, s.now(), maxAge) {
		delete(s.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), it.data...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.items[key] = memoryItem{data: append([]byte(nil), data...), storedAt: s.now()}
	s.mu.Unlock()
	return nil
}

// Len é o número de entradas guardadas, vencidas ou não.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
