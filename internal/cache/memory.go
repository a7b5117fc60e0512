package cache

import (
	"context"
	"sync"
	"time"
)

const janitorInterval = time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Memory is an in-process Store with TTL expiry and a background janitor.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry

	stopJanitor chan struct{}
	stopOnce    sync.Once
}

// Ensure Memory implements Store interface
var _ Store = (*Memory)(nil)

// NewMemory creates an in-memory store and starts its janitor.
func NewMemory() *Memory {
	m := &Memory{
		entries:     make(map[string]*entry),
		stopJanitor: make(chan struct{}),
	}
	go m.janitor()
	return m
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, ErrMiss
	}

	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	copied := make([]byte, len(value))
	copy(copied, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &entry{value: copied, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*entry)
	return nil
}

// Close stops the janitor goroutine.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stopJanitor) })
	return nil
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.removeExpired()
		case <-m.stopJanitor:
			return
		}
	}
}

func (m *Memory) removeExpired() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}
