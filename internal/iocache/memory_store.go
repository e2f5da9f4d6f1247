package iocache

import (
	"slices"
	"sync"
	"time"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

type memoryEntry struct {
	value     []byte
	updatedAt time.Time
}

// MemoryStore is an in-process ResultStore. It is used by the local server,
// the MCP server and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ contract.ResultStore = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get returns a copy of the blob stored under key.
func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(e.value), true, nil
}

// Put stores a copy of value under key.
func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == nil {
		value = []byte{}
	}
	m.entries[key] = memoryEntry{value: slices.Clone(value), updatedAt: time.Now()}
	return nil
}

// Clear removes key.
func (m *MemoryStore) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// GetStatus reports the keys currently held.
func (m *MemoryStore) GetStatus() (schema.StoreStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := schema.StoreStatus{
		Backend:      string(schema.MemoryBackend),
		Connected:    true,
		TotalEntries: len(m.entries),
	}
	for k, e := range m.entries {
		status.Keys = append(status.Keys, k)
		status.TableSizeBytes += int64(len(e.value))
		if e.updatedAt.After(status.LastEntryTime) {
			status.LastEntryTime = e.updatedAt
		}
		if status.OldestEntryTime.IsZero() || e.updatedAt.Before(status.OldestEntryTime) {
			status.OldestEntryTime = e.updatedAt
		}
	}
	slices.Sort(status.Keys)
	return status, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
