package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload  []byte
	storedAt time.Time
	ttl      time.Duration
}

// Memory is an in-memory Store safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, fingerprint string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[fingerprint]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if expired(entry.storedAt, entry.ttl, time.Now()) {
		m.mu.Lock()
		delete(m.entries, fingerprint)
		m.mu.Unlock()
		return nil, false
	}

	return entry.payload, true
}

func (m *Memory) Put(_ context.Context, fingerprint string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[fingerprint] = memoryEntry{payload: payload, storedAt: time.Now(), ttl: ttl}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, pred func(string) bool) error {
	m.mu.Lock()
	for fingerprint := range m.entries {
		if pred(fingerprint) {
			delete(m.entries, fingerprint)
		}
	}
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including any not yet expired lazily.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
