// Package agentpool provides an LRU-bounded cache of prompt-specialized agents.
package agentpool

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/metrics"
)

// Agent is a prompt-specialized LLM handle.
type Agent interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Constructor builds a new agent for a system prompt and tool set.
type Constructor func(systemPrompt string, tools []model.ToolDecl) (Agent, error)

type entry struct {
	agent      Agent
	usageCount int
	lastUsed   time.Time
}

// Pool is a bounded mapping from prompt hash to agent handle. On overflow the
// entry with the oldest last-used time is evicted.
type Pool struct {
	capacity  int
	construct Constructor

	mu      sync.Mutex
	entries map[uint64]*entry
}

// DefaultCapacity bounds the pool when no capacity is configured.
const DefaultCapacity = 50

// New creates an agent pool.
func New(capacity int, construct Constructor) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		capacity:  capacity,
		construct: construct,
		entries:   make(map[uint64]*entry),
	}
}

// PromptHash hashes a system prompt and its tool names into the pool key.
func PromptHash(systemPrompt string, tools []model.ToolDecl) uint64 {
	h := fnv.New64a()
	h.Write([]byte(systemPrompt))
	for _, t := range tools {
		h.Write([]byte{0})
		h.Write([]byte(t.Name))
	}
	return h.Sum64()
}

// Get returns the pooled agent for the prompt, constructing one on miss.
// Construction happens under the pool lock so at most one agent per prompt
// hash exists at a time.
func (p *Pool) Get(systemPrompt string, tools []model.ToolDecl) (Agent, error) {
	key := PromptHash(systemPrompt, tools)

	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[key]; ok {
		e.usageCount++
		e.lastUsed = time.Now()
		return e.agent, nil
	}

	agent, err := p.construct(systemPrompt, tools)
	if err != nil {
		return nil, fmt.Errorf("failed to construct agent: %w", err)
	}

	if len(p.entries) >= p.capacity {
		p.evictOldest()
	}

	p.entries[key] = &entry{agent: agent, usageCount: 1, lastUsed: time.Now()}
	metrics.AgentPoolSize.Set(float64(len(p.entries)))

	return agent, nil
}

// Len returns the current number of pooled agents.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Contains reports whether an agent for the prompt is currently pooled.
func (p *Pool) Contains(systemPrompt string, tools []model.ToolDecl) bool {
	key := PromptHash(systemPrompt, tools)
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[key]
	return ok
}

// evictOldest removes the entry with the oldest last-used time.
// Caller must hold p.mu.
func (p *Pool) evictOldest() {
	var oldestKey uint64
	var oldest time.Time
	first := true
	for key, e := range p.entries {
		if first || e.lastUsed.Before(oldest) {
			oldestKey = key
			oldest = e.lastUsed
			first = false
		}
	}
	if !first {
		delete(p.entries, oldestKey)
		metrics.AgentPoolEvictions.Inc()
	}
}
