package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/internal/store"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

func newTestManager(t *testing.T) (*Manager, *store.ConversationStore) {
	t.Helper()
	st := store.NewConversationStore(store.NewMemoryKV(), store.NewMemoryKV(), logger.NewNop())
	return NewManager(st, logger.NewNop()), st
}

func TestAppend_BuildsSequence(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	msgs := m.Append(ctx, "u1", model.NewUserMessage("hello"))
	require.Len(t, msgs, 1)

	msgs = m.Append(ctx, "u1", model.NewAssistantMessage("hi"))
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi", msgs[1].Content)
}

func TestMessages_HydratesFromStoreOnFirstAccess(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	persisted := []model.Message{
		model.NewUserMessage("earlier"),
		model.NewAssistantMessage("conversation"),
	}
	require.NoError(t, st.Save(ctx, "u1", persisted))

	msgs := m.Messages(ctx, "u1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "earlier", msgs[0].Content)
}

func TestMessages_ReturnsCopy(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Append(ctx, "u1", model.NewUserMessage("hello"))
	msgs := m.Messages(ctx, "u1")
	msgs[0].Content = "mutated"

	fresh := m.Messages(ctx, "u1")
	assert.Equal(t, "hello", fresh[0].Content)
}

func TestClear_ResetsInMemoryOnly(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	msgs := m.Append(ctx, "u1", model.NewUserMessage("hello"))
	require.NoError(t, st.Save(ctx, "u1", msgs))

	m.Clear("u1")

	assert.Empty(t, m.Messages(ctx, "u1"), "cleared session must not rehydrate")

	loaded, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "persisted payload survives a clear")
}

func TestDrop_NextAccessRehydrates(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	msgs := m.Append(ctx, "u1", model.NewUserMessage("hello"))
	require.NoError(t, st.Save(ctx, "u1", msgs))

	m.Drop("u1")

	rehydrated := m.Messages(ctx, "u1")
	require.Len(t, rehydrated, 1)
	assert.Equal(t, "hello", rehydrated[0].Content)
}

func TestSessions_AreIsolatedPerUser(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Append(ctx, "u1", model.NewUserMessage("from u1"))
	m.Append(ctx, "u2", model.NewUserMessage("from u2"))

	assert.Len(t, m.Messages(ctx, "u1"), 1)
	assert.Len(t, m.Messages(ctx, "u2"), 1)
	assert.Equal(t, "from u1", m.Messages(ctx, "u1")[0].Content)
}
