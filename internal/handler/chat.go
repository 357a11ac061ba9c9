package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/middleware"
	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/internal/orchestrator"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

// ChatHandler handles the chat pipeline endpoints.
type ChatHandler struct {
	orch   *orchestrator.Orchestrator
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		orch:   orch,
		logger: log,
	}
}

// Send handles POST /api/v1/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	text, err := h.orch.HandleUserMessage(ctx, userID, req.Text)
	if err != nil {
		h.logger.Error("chat pipeline failed",
			zap.String("user_id", userID),
			zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, "request timed out")
			return
		}
		// The pipeline returns a user-safe message alongside the error.
		writeJSON(w, http.StatusOK, model.ChatResponse{
			Text:      text,
			ElapsedMs: time.Since(start).Milliseconds(),
		})
		return
	}

	writeJSON(w, http.StatusOK, model.ChatResponse{
		Text:      text,
		ElapsedMs: time.Since(start).Milliseconds(),
	})
}

// Clear handles POST /api/v1/chat/clear
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	h.orch.ClearChat(userID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "cleared",
	})
}

// Logout handles POST /api/v1/session/logout
func (h *ChatHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	h.orch.Logout(userID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "logged out",
	})
}
