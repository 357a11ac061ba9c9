package model

// KnowledgeEntry is a stored fact keyed by a normalized lowercase topic.
type KnowledgeEntry struct {
	Topic     string `json:"topic"`
	Data      string `json:"data"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
}

// CacheEntry is a persisted response cache record.
type CacheEntry struct {
	CacheKey  string `json:"cache_key"`
	Response  string `json:"response"`
	Timestamp int64  `json:"timestamp"`
	TTL       int64  `json:"ttl"`
}
