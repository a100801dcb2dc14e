package storage

import (
	"sync"
	"time"
)

// memoryStore keeps marks for the life of the process only.
type memoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	ttl       time.Duration
	interval  time.Duration
	lastSweep time.Time
	expiries  map[string]time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	m := &memoryStore{
		now:      time.Now,
		ttl:      opts.PostTTL,
		interval: opts.CleanupInterval,
		expiries: make(map[string]time.Time),
	}
	m.lastSweep = m.now()
	return m
}

func (m *memoryStore) SeenPost(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)
	expiry, ok := m.expiries[id]
	return ok && expiry.After(now), nil
}

func (m *memoryStore) MarkPost(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)
	m.expiries[id] = now.Add(m.ttl)
	return nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	m.expiries = make(map[string]time.Time)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < m.interval {
		return
	}
	for id, expiry := range m.expiries {
		if !expiry.After(now) {
			delete(m.expiries, id)
		}
	}
	m.lastSweep = now
}
