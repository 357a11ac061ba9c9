package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-ai/assistant-core/internal/model"
)

const topicsIndexKey = "knowledge:topics"

// RedisBackend stores knowledge entries as JSON documents plus a set index of
// topic names for fuzzy retrieval.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend wraps an existing Redis client.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func entryKey(topic string) string {
	return "knowledge:entry:" + topic
}

func (b *RedisBackend) Put(ctx context.Context, entry *model.KnowledgeEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, entryKey(entry.Topic), data, 0)
	pipe.SAdd(ctx, topicsIndexKey, entry.Topic)
	_, err = pipe.Exec(ctx)
	return err
}

func (b *RedisBackend) Get(ctx context.Context, topic string) (*model.KnowledgeEntry, error) {
	data, err := b.rdb.Get(ctx, entryKey(topic)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry model.KnowledgeEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}

func (b *RedisBackend) Topics(ctx context.Context) ([]string, error) {
	return b.rdb.SMembers(ctx, topicsIndexKey).Result()
}

// MemoryBackend keeps knowledge entries in memory; used in dev mode and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]*model.KnowledgeEntry
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]*model.KnowledgeEntry)}
}

func (b *MemoryBackend) Put(ctx context.Context, entry *model.KnowledgeEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *entry
	b.entries[entry.Topic] = &cp
	return nil
}

func (b *MemoryBackend) Get(ctx context.Context, topic string) (*model.KnowledgeEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.entries[topic]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (b *MemoryBackend) Topics(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	topics := make([]string, 0, len(b.entries))
	for topic := range b.entries {
		topics = append(topics, topic)
	}
	return topics, nil
}
