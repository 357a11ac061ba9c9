package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryTier is an in-process SharedTier used in dev mode and in tests.
type MemoryTier struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryTier creates an empty in-memory shared tier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{entries: make(map[string]memoryEntry)}
}

func (t *MemoryTier) Get(ctx context.Context, key string) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[key]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(t.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (t *MemoryTier) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}
