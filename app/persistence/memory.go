package persistence

import (
	"fmt"
	"sync"
)

// MemoryStore implements KV in memory. Values don't survive restarts.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore makes an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns value for the key
func (m *MemoryStore) Get(key string) (value string, found bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, found = m.data[key]
	return value, found, nil
}

// Set stores value for the key
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete removes the key
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("memory store, %d keys", len(m.data))
}
