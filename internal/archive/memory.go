package archive

import (
	"context"
	"sync"
)

// Memory is an in-process Store for tests and local runs.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Save records the blob under its key and returns a mem:// URI.
func (m *Memory) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[key] = cp
	return "mem://" + key, nil
}

// Get returns a stored blob, for test assertions.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	return b, ok
}

// Len reports how many blobs are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
