package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in a process-local map.
type MemoryStore[V any] struct {
	entries map[string]Entry[V]
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{
		entries: make(map[string]Entry[V]),
	}
}

// Load implements Store.
func (m *MemoryStore[V]) Load(_ context.Context, key string) (Entry[V], bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	return entry, ok, nil
}

// Save implements Store. The last write for a key wins.
func (m *MemoryStore[V]) Save(_ context.Context, key string, entry Entry[V]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry
	return nil
}

// Len returns the number of stored entries, fresh or stale.
func (m *MemoryStore[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear removes all entries.
func (m *MemoryStore[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry[V])
}
