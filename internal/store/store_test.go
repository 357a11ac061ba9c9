package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

func newTestStore() (*ConversationStore, *MemoryKV, *MemoryKV) {
	meta := NewMemoryKV()
	blobs := NewMemoryKV()
	return NewConversationStore(meta, blobs, logger.NewNop()), meta, blobs
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	messages := []model.Message{
		model.NewUserMessage("hello"),
		model.NewAssistantMessage("hi there"),
	}

	require.NoError(t, s.Save(ctx, "u1", messages))

	loaded, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, model.RoleUser, loaded[0].Role)
	assert.Equal(t, "hello", loaded[0].Content)
	assert.Equal(t, model.RoleAssistant, loaded[1].Role)
	assert.Equal(t, "hi there", loaded[1].Content)
}

func TestLoad_AbsentUserYieldsEmpty(t *testing.T) {
	s, _, _ := newTestStore()

	loaded, err := s.Load(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSave_RecordPointsAtLatestBlob(t *testing.T) {
	s, _, blobs := newTestStore()
	ctx := context.Background()

	first := []model.Message{model.NewUserMessage("one")}
	require.NoError(t, s.Save(ctx, "u1", first))

	second := append(first, model.NewAssistantMessage("two"))
	require.NoError(t, s.Save(ctx, "u1", second))

	record, err := s.Record(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 2, record.MessageCount)
	assert.Equal(t, "two", record.LastMessagePreview)
	assert.True(t, strings.HasPrefix(record.BlobKey, "conversations/u1/"))

	// Both payload generations exist; the record points at the newest.
	assert.Equal(t, 2, blobs.Len())
	loaded, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestSave_PreviewTruncated(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	long := strings.Repeat("x", model.PreviewLimit+50)
	require.NoError(t, s.Save(ctx, "u1", []model.Message{model.NewAssistantMessage(long)}))

	record, err := s.Record(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Len(t, record.LastMessagePreview, model.PreviewLimit+3)
	assert.True(t, strings.HasSuffix(record.LastMessagePreview, "..."))
}

func TestSave_PreviewTruncatesOnRuneBoundary(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	// 40 three-byte runes: the byte limit lands mid-rune.
	long := strings.Repeat("日", 40)
	require.NoError(t, s.Save(ctx, "u1", []model.Message{model.NewAssistantMessage(long)}))

	record, err := s.Record(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, utf8.ValidString(record.LastMessagePreview))
	assert.Equal(t, strings.Repeat("日", 33)+"...", record.LastMessagePreview)
}

type failingBlobs struct{ BlobStore }

func (failingBlobs) Put(ctx context.Context, key string, data []byte) error {
	return errors.New("blob store down")
}

func TestSave_BlobFailureLeavesMetadataUntouched(t *testing.T) {
	meta := NewMemoryKV()
	s := NewConversationStore(meta, failingBlobs{}, logger.NewNop())

	err := s.Save(context.Background(), "u1", []model.Message{model.NewUserMessage("hi")})

	require.Error(t, err)
	assert.Equal(t, 0, meta.Len(), "metadata must not be written when the blob write fails")
}

func TestDelete_RemovesRecordAndCurrentBlob(t *testing.T) {
	s, meta, blobs := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "u1", []model.Message{model.NewUserMessage("hi")}))
	require.Equal(t, 1, meta.Len())
	require.Equal(t, 1, blobs.Len())

	require.NoError(t, s.Delete(ctx, "u1"))

	assert.Equal(t, 0, meta.Len())
	assert.Equal(t, 0, blobs.Len())

	loaded, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDelete_AbsentUserIsNoOp(t *testing.T) {
	s, _, _ := newTestStore()
	assert.NoError(t, s.Delete(context.Background(), "nobody"))
}
