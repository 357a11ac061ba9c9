// Package cache implements the two-tier response cache with time-sensitivity
// filtering.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/pkg/logger"
	"github.com/meridian-ai/assistant-core/pkg/metrics"
)

// temporalKeywords mark a query as time-sensitive; responses to such queries
// must never be cached.
var temporalKeywords = []string{"time", "date", "today", "now", "current"}

// SharedTier is the cross-process cache backend.
type SharedTier interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type localEntry struct {
	response  string
	expiresAt time.Time
}

// ResponseCache caches final response text keyed by (query, model, user).
type ResponseCache struct {
	shared SharedTier
	ttl    time.Duration
	logger *logger.Logger

	mu    sync.Mutex
	local map[string]localEntry
}

// New creates a response cache. shared may be nil, in which case only the
// process-local tier is used.
func New(shared SharedTier, ttl time.Duration, log *logger.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &ResponseCache{
		shared: shared,
		ttl:    ttl,
		logger: log,
		local:  make(map[string]localEntry),
	}
}

// Key computes the stable cache key for a query. The user id is folded in
// only when present so anonymous users share entries.
func Key(query, modelID, userID string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(modelID))
	if userID != "" {
		h.Write([]byte{0})
		h.Write([]byte(userID))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IsTimeSensitive reports whether the query contains a temporal keyword.
func IsTimeSensitive(query string) bool {
	lower := strings.ToLower(query)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, ".,!?;:'\"")] = struct{}{}
	}
	for _, kw := range temporalKeywords {
		if _, ok := words[kw]; ok {
			return true
		}
	}
	return false
}

// Get probes the local tier first, then the shared tier. A hit returns the
// stored response verbatim. Shared-tier failures are treated as misses.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	entry, ok := c.local[key]
	if ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		metrics.RecordCacheOp("local", "hit")
		return entry.response, true
	}
	if ok {
		delete(c.local, key)
	}
	c.mu.Unlock()
	metrics.RecordCacheOp("local", "miss")

	if c.shared == nil {
		return "", false
	}

	value, found, err := c.shared.Get(ctx, key)
	if err != nil {
		c.logger.Warn("shared cache read failed", zap.Error(err))
		metrics.RecordCacheOp("shared", "error")
		return "", false
	}
	if !found {
		metrics.RecordCacheOp("shared", "miss")
		return "", false
	}
	metrics.RecordCacheOp("shared", "hit")

	// Promote to the local tier.
	c.mu.Lock()
	c.local[key] = localEntry{response: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return value, true
}

// Set writes the response to both tiers unless the query is time-sensitive.
func (c *ResponseCache) Set(ctx context.Context, key, query, response string) {
	if IsTimeSensitive(query) {
		metrics.RecordCacheOp("write", "skipped_time_sensitive")
		return
	}

	c.mu.Lock()
	c.local[key] = localEntry{response: response, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	if c.shared == nil {
		return
	}

	if err := c.shared.Set(ctx, key, response, c.ttl); err != nil {
		c.logger.Warn("shared cache write failed", zap.Error(err))
		metrics.RecordCacheOp("shared", "error")
		return
	}
	metrics.RecordCacheOp("write", "ok")
}

// TTL returns the configured entry lifetime.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}
