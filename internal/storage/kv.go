package storage

import (
	"slices"
	"sync"
)

// KV is the byte-level key/value surface the rest of the app persists through.
// Get returns (nil, nil) for a missing key.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Metadata is implemented by stores that keep small string records outside
// the main key space.
type Metadata interface {
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// MemoryKV is a KV kept in process memory, used for tests and for the
// ":memory:" database path.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(v), nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
