// Package kvstore provides the durable string slot backends used by the
// persisted history and favorites lists.
package kvstore

import (
	"context"
	"sync"

	"github.com/mealquest/backend/internal/domain"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a thread-safe in-memory slot store. Contents are lost on restart.
type MemoryStore struct {
	data  map[string]string
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

// Get retrieves the value stored under key
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, ok := s.data[key]
	return value, ok, nil
}

// Set overwrites the value stored under key
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return domain.ErrInvalidRequest
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = value
	return nil
}

// Delete removes a key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, key)
	return nil
}

// Size returns the current number of keys (for debugging/monitoring)
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes all keys
func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = make(map[string]string)
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
