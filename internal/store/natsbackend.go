package store

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go/jetstream"
)

// KVMetaStore adapts a JetStream key/value bucket to the MetaStore interface.
type KVMetaStore struct {
	kv jetstream.KeyValue
}

// NewKVMetaStore wraps a JetStream KV bucket.
func NewKVMetaStore(kv jetstream.KeyValue) *KVMetaStore {
	return &KVMetaStore{kv: kv}
}

func (s *KVMetaStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value(), nil
}

func (s *KVMetaStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.kv.Put(ctx, key, value)
	return err
}

func (s *KVMetaStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// ObjectBlobStore adapts a JetStream object store bucket to the BlobStore
// interface.
type ObjectBlobStore struct {
	objs jetstream.ObjectStore
}

// NewObjectBlobStore wraps a JetStream object store bucket.
func NewObjectBlobStore(objs jetstream.ObjectStore) *ObjectBlobStore {
	return &ObjectBlobStore{objs: objs}
}

func (s *ObjectBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.objs.GetBytes(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *ObjectBlobStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.objs.PutBytes(ctx, key, data)
	return err
}

func (s *ObjectBlobStore) Delete(ctx context.Context, key string) error {
	err := s.objs.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return ErrNotFound
	}
	return err
}
