// Package kvstore provides the synchronous string-keyed store the catalog is
// mirrored into. Values are full serialized collections; writes are
// whole-value overwrites with no merge semantics.
package kvstore

import "sync"

// Store is a synchronous string get/set store. Get reports ok=false when the
// key has never been set.
type Store interface {
	Get(key string) (value string, ok bool)
	Set(key, value string) error
}

// Memory is an in-process Store. Safe for concurrent use. Contents die with
// the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set overwrites the value stored under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
