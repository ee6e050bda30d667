// Package cache provides a small in-memory TTL cache for read-heavy
// lookups like user profiles.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Memory is a thread-safe in-memory cache with per-entry TTL and a
// bounded size. When full, the entry closest to expiry is evicted.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]entry
	ttl     time.Duration
	maxSize int
}

// NewMemory creates a cache with the given default TTL and size bound.
// A maxSize of zero means unbounded.
func NewMemory(defaultTTL time.Duration, maxSize int) *Memory {
	return &Memory{
		data:    make(map[string]entry),
		ttl:     defaultTTL,
		maxSize: maxSize,
	}
}

// Set stores a value. A zero ttl uses the cache's default.
func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	if ttl == 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSize > 0 && len(m.data) >= m.maxSize {
		if _, exists := m.data[key]; !exists {
			m.evictSoonestLocked()
		}
	}
	m.data[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the cached value, or false if absent or expired.
func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.Delete(key)
		return nil, false
	}
	return e.value, true
}

// Delete removes a key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}

// Len reports the number of entries, including any not yet swept expired ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	for k, e := range m.data {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim = k
			soonest = e.expiresAt
		}
	}
	if victim != "" {
		delete(m.data, victim)
	}
}
