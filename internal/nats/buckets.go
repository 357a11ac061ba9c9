package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// MetaBucket holds conversation metadata records keyed by user id.
	MetaBucket = "conv_meta"

	// PayloadBucket holds serialized conversation payload blobs.
	PayloadBucket = "conv_payloads"

	// TelemetrySubjectPrefix is the prefix for telemetry event subjects.
	TelemetrySubjectPrefix = "telemetry"
)

// BucketManager provisions and exposes the KV and object store buckets used
// by the conversation store.
type BucketManager struct {
	client *Client
	kv     jetstream.KeyValue
	objs   jetstream.ObjectStore
}

// NewBucketManager creates the buckets if they do not exist yet.
func NewBucketManager(ctx context.Context, client *Client) (*BucketManager, error) {
	js := client.JetStream()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      MetaBucket,
		Description: "Conversation metadata records",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata bucket: %w", err)
	}

	objs, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      PayloadBucket,
		Description: "Conversation payload blobs",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payload bucket: %w", err)
	}

	return &BucketManager{client: client, kv: kv, objs: objs}, nil
}

// Metadata returns the KV bucket holding conversation records.
func (m *BucketManager) Metadata() jetstream.KeyValue {
	return m.kv
}

// Payloads returns the object store holding conversation blobs.
func (m *BucketManager) Payloads() jetstream.ObjectStore {
	return m.objs
}

// TelemetryEvent is a fire-and-forget pipeline observation.
type TelemetryEvent struct {
	Type          string         `json:"type"`
	UserID        string         `json:"user_id,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PublishTelemetry publishes a telemetry event over core NATS. Failures are
// returned so the caller can log them, but callers never treat them as fatal.
func (m *BucketManager) PublishTelemetry(event *TelemetryEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", TelemetrySubjectPrefix, event.Type)
	if err := m.client.Conn().Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish telemetry: %w", err)
	}

	return nil
}
