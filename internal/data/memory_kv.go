package data

import (
	"context"
	"errors"
	"sync"
)

// MemoryKV is an in-memory KeyValue backend for development and tests.
// Values are copied on the way in and out so callers never share slices.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string][]byte)}
}

// Set stores a copy of value under key.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(value))
	copy(buf, value)
	m.entries[key] = buf
	return nil
}

// Get returns a copy of the stored value, or nil when the key is absent.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return buf, nil
}

// Delete removes a key. Returns true if the key existed.
func (m *MemoryKV) Delete(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	delete(m.entries, key)
	return ok, nil
}

// Keys returns a snapshot of all stored keys. Used by the admin CLI.
func (m *MemoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys, nil
}
