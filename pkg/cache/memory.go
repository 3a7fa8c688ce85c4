package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity bounds the memory store when no capacity is configured.
const DefaultCapacity = 512

type memoryEntry struct {
	value    []byte
	expires  time.Time
	storedAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.After(e.expires)
}

// Memory is the default in-process Store. Entries expire lazily on read;
// when the capacity bound is reached the oldest entry is evicted first.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	capacity int
}

// NewMemory creates a memory store. capacity <= 0 uses DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
	}
}

// Get returns the value for key, or ErrCacheMiss when absent or expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}
	if entry.expired(time.Now()) {
		delete(m.entries, key)
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry.value, nil
}

// Set stores value under key for ttl.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.capacity {
		m.evictOldest(now)
	}
	m.entries[key] = memoryEntry{
		value:    value,
		expires:  now.Add(ttl),
		storedAt: now,
	}
	return nil
}

// evictOldest drops expired entries first, then the oldest stored entry.
// Caller holds the lock.
func (m *Memory) evictOldest(now time.Time) {
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			return
		}
	}

	var oldestKey string
	var oldestAt time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
		CacheEvictions.Inc()
	}
}

// Invalidate removes key.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// InvalidateAll removes every entry.
func (m *Memory) InvalidateAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of live entries (expired entries may be counted
// until their next read).
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
