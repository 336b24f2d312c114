package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps UI state for the lifetime of the process only. It is used when the
// state database cannot be opened and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[namespace][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	region, ok := s.data[namespace]
	if !ok {
		region = make(map[string][]byte)
		s.data[namespace] = region
	}
	region[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, namespace string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data[namespace], key)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, namespace string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.data[namespace]))
	for key, value := range s.data[namespace] {
		out[key] = append([]byte(nil), value...)
	}
	return out, nil
}
