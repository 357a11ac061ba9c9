// Package store implements baggage-claim conversation persistence: a metadata
// record in a key/value bucket pointing at a payload blob in object storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
	"github.com/meridian-ai/assistant-core/pkg/metrics"
)

// ErrNotFound is returned by backends when a key or blob is absent.
var ErrNotFound = errors.New("not found")

// MetaStore is the key/value backend holding conversation records.
type MetaStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// BlobStore is the object storage backend holding payload blobs.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// ConversationStore persists per-user conversations.
type ConversationStore struct {
	meta   MetaStore
	blobs  BlobStore
	logger *logger.Logger
}

// NewConversationStore creates a conversation store over the given backends.
func NewConversationStore(meta MetaStore, blobs BlobStore, log *logger.Logger) *ConversationStore {
	return &ConversationStore{meta: meta, blobs: blobs, logger: log}
}

// BlobKey builds the payload key for a save at the given instant.
func BlobKey(userID string, ts time.Time) string {
	return fmt.Sprintf("conversations/%s/%d", userID, ts.UnixNano())
}

// Save serializes messages and persists them, payload blob first, then the
// metadata record. The blob-first order means a concurrent reader never
// observes a dangling pointer; a stale pointer resolves to the prior payload.
func (s *ConversationStore) Save(ctx context.Context, userID string, messages []model.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	blobKey := BlobKey(userID, time.Now())
	if err := s.blobs.Put(ctx, blobKey, payload); err != nil {
		metrics.ConversationSaves.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write payload blob: %w", err)
	}

	var preview string
	if len(messages) > 0 {
		preview = model.Preview(messages[len(messages)-1].Content)
	}

	record := model.ConversationRecord{
		UserID:             userID,
		ConversationID:     userID,
		LastUpdated:        time.Now().Unix(),
		MessageCount:       len(messages),
		BlobKey:            blobKey,
		LastMessagePreview: preview,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.meta.Put(ctx, userID, data); err != nil {
		metrics.ConversationSaves.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write metadata record: %w", err)
	}

	metrics.ConversationSaves.WithLabelValues("ok").Inc()
	s.logger.Debug("conversation saved",
		zap.String("user_id", userID),
		zap.String("blob_key", blobKey),
		zap.Int("message_count", len(messages)),
	)

	return nil
}

// Load resolves metadata, then blob key, then payload. Absence of metadata
// yields an empty sequence rather than an error.
func (s *ConversationStore) Load(ctx context.Context, userID string) ([]model.Message, error) {
	data, err := s.meta.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata record: %w", err)
	}

	var record model.ConversationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	if record.BlobKey == "" {
		return nil, nil
	}

	payload, err := s.blobs.Get(ctx, record.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload blob: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal(payload, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return messages, nil
}

// Record returns the metadata record for a user, or nil when absent.
func (s *ConversationStore) Record(ctx context.Context, userID string) (*model.ConversationRecord, error) {
	data, err := s.meta.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata record: %w", err)
	}

	var record model.ConversationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &record, nil
}

// Delete removes the current payload blob, then the metadata record.
// Historical blobs from earlier conversations are left to the blob store's
// lifecycle management.
func (s *ConversationStore) Delete(ctx context.Context, userID string) error {
	record, err := s.Record(ctx, userID)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	if record.BlobKey != "" {
		if err := s.blobs.Delete(ctx, record.BlobKey); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to delete payload blob: %w", err)
		}
	}

	if err := s.meta.Delete(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete metadata record: %w", err)
	}

	return nil
}
