// Package cache holds the in-process extraction result store.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
)

type entry struct {
	res     *accessibility.ExtractionResult
	expires time.Time
}

// Memory is a thread-safe result store with per-entry TTL.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (*accessibility.ExtractionResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.res, true, nil
}

func (m *Memory) Put(_ context.Context, key string, res *accessibility.ExtractionResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{res: res, expires: m.now().Add(ttl)}
	return nil
}

// Cleanup removes expired entries.
func (m *Memory) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
}

// Len reports the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
