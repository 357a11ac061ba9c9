// Package knowledge provides the store/retrieve/learn interface over the
// knowledge base, with fuzzy topic retrieval and a local TTL cache.
package knowledge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

// Backend is the persistence layer under the knowledge store.
type Backend interface {
	Put(ctx context.Context, entry *model.KnowledgeEntry) error
	Get(ctx context.Context, topic string) (*model.KnowledgeEntry, error)
	Topics(ctx context.Context) ([]string, error)
}

// DefaultMinScore is the retrieval similarity threshold on a 0..1 scale.
const DefaultMinScore = 0.7

// localCacheTTL bounds how long a retrieved entry is served from memory.
const localCacheTTL = 5 * time.Minute

type cached struct {
	entry     *model.KnowledgeEntry
	expiresAt time.Time
}

// Store is the unified knowledge interface. With a nil backend every
// operation is a no-op, matching the fail-closed configuration contract.
type Store struct {
	backend Backend
	logger  *logger.Logger

	mu    sync.Mutex
	cache map[string]cached
}

// New creates a knowledge store. backend may be nil when the knowledge base
// is not configured.
func New(backend Backend, log *logger.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  log,
		cache:   make(map[string]cached),
	}
}

// Enabled reports whether a backend is configured.
func (s *Store) Enabled() bool {
	return s.backend != nil
}

// NormalizeTopic lowercases and trims a topic name.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// StoreEntry persists a fact under a normalized topic.
func (s *Store) StoreEntry(ctx context.Context, topic, data, source string) bool {
	if s.backend == nil {
		return false
	}
	topic = NormalizeTopic(topic)
	if topic == "" || data == "" {
		return false
	}

	entry := &model.KnowledgeEntry{
		Topic:     topic,
		Data:      data,
		Source:    source,
		Timestamp: time.Now().Unix(),
	}
	if err := s.backend.Put(ctx, entry); err != nil {
		s.logger.Warn("knowledge store failed", zap.String("topic", topic), zap.Error(err))
		return false
	}

	s.mu.Lock()
	s.cache[topic] = cached{entry: entry, expiresAt: time.Now().Add(localCacheTTL)}
	s.mu.Unlock()

	return true
}

// Retrieve finds the stored entry whose topic best matches the query, subject
// to the similarity threshold. Returns nil when nothing clears the bar.
func (s *Store) Retrieve(ctx context.Context, topic string, minScore float64) *model.KnowledgeEntry {
	if s.backend == nil {
		return nil
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	topic = NormalizeTopic(topic)

	// Exact hit through the local cache first.
	s.mu.Lock()
	if c, ok := s.cache[topic]; ok && time.Now().Before(c.expiresAt) {
		s.mu.Unlock()
		return c.entry
	}
	s.mu.Unlock()

	if entry, err := s.backend.Get(ctx, topic); err == nil && entry != nil {
		s.remember(entry)
		return entry
	}

	topics, err := s.backend.Topics(ctx)
	if err != nil || len(topics) == 0 {
		return nil
	}

	best := bestMatch(topic, topics, minScore)
	if best == "" {
		return nil
	}

	entry, err := s.backend.Get(ctx, best)
	if err != nil || entry == nil {
		return nil
	}
	s.remember(entry)
	return entry
}

// Learn extracts topics from a query/response exchange and stores the
// response under each.
func (s *Store) Learn(ctx context.Context, query, response string) {
	if s.backend == nil {
		return
	}
	for _, topic := range ExtractTopics(query) {
		s.StoreEntry(ctx, topic, response, "conversation")
	}
}

func (s *Store) remember(entry *model.KnowledgeEntry) {
	s.mu.Lock()
	s.cache[entry.Topic] = cached{entry: entry, expiresAt: time.Now().Add(localCacheTTL)}
	s.mu.Unlock()
}

// bestMatch runs fuzzy matching over the topic list and maps the result onto
// the 0..1 score scale. The fuzzy score is length-sensitive, so it is
// normalized by the pattern length before thresholding.
func bestMatch(pattern string, topics []string, minScore float64) string {
	matches := fuzzy.Find(pattern, topics)
	if len(matches) == 0 {
		return ""
	}
	best := matches[0]

	// A perfect match scores roughly one point per matched rune plus bonuses;
	// normalize into 0..1 against the pattern length.
	normalized := float64(len(best.MatchedIndexes)) / float64(len([]rune(pattern)))
	if normalized < minScore {
		return ""
	}
	return topics[best.Index]
}

// topicStopwords are stripped when extracting topics from a query.
var topicStopwords = map[string]struct{}{
	"what": {}, "is": {}, "the": {}, "a": {}, "an": {}, "of": {}, "my": {},
	"how": {}, "do": {}, "does": {}, "are": {}, "was": {}, "were": {},
	"please": {}, "remember": {}, "store": {}, "save": {}, "this": {},
	"that": {}, "tell": {}, "me": {}, "about": {}, "i": {}, "you": {},
}

// ExtractTopics pulls candidate topics out of a query: the full normalized
// phrase with stopwords stripped, plus any remaining multi-word run.
func ExtractTopics(query string) []string {
	normalized := NormalizeTopic(strings.TrimRight(query, "?!."))
	if normalized == "" {
		return nil
	}

	var kept []string
	for _, w := range strings.Fields(normalized) {
		if _, stop := topicStopwords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return nil
	}

	phrase := strings.Join(kept, " ")
	topics := []string{phrase}
	if len(kept) > 1 {
		// Single most specific token as a secondary topic.
		topics = append(topics, kept[len(kept)-1])
	}
	return topics
}
