// Package session tracks per-user in-memory conversation state. The session
// is authoritative for the remainder of a conversation when storage fails.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/internal/store"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

// Manager holds session anchors keyed by user id.
type Manager struct {
	store  *store.ConversationStore
	logger *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	messages []model.Message
}

// NewManager creates a session manager backed by the conversation store.
func NewManager(st *store.ConversationStore, log *logger.Logger) *Manager {
	return &Manager{
		store:    st,
		logger:   log,
		sessions: make(map[string]*session),
	}
}

// Messages returns a copy of the user's current message sequence, loading the
// persisted conversation on first access.
func (m *Manager) Messages(ctx context.Context, userID string) []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.ensureLocked(ctx, userID)
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Append adds a message to the session and returns the full sequence.
func (m *Manager) Append(ctx context.Context, userID string, msg model.Message) []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.ensureLocked(ctx, userID)
	s.messages = append(s.messages, msg)
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear starts a new conversation: the in-memory sequence resets while prior
// payload blobs remain in storage. The next save writes a new blob key.
func (m *Manager) Clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &session{}
}

// Drop removes the session anchor entirely, e.g. on logout.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// ensureLocked returns the session for a user, hydrating it from the
// conversation store on first access. Caller must hold m.mu.
func (m *Manager) ensureLocked(ctx context.Context, userID string) *session {
	if s, ok := m.sessions[userID]; ok {
		return s
	}

	s := &session{}
	messages, err := m.store.Load(ctx, userID)
	if err != nil {
		m.logger.Warn("conversation load failed, starting empty session",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	} else {
		s.messages = messages
	}
	m.sessions[userID] = s
	return s
}
