// Package model defines data structures for the query orchestration pipeline.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one turn of a conversation.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Error     bool   `json:"error,omitempty"`
}

// NewUserMessage builds a user message stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().Unix()}
}

// NewAssistantMessage builds an assistant message stamped with the current time.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().Unix()}
}

// NewErrorMessage builds an assistant message carrying the error flag so the
// persisted conversation stays consistent after a surfaced failure.
func NewErrorMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().Unix(), Error: true}
}

// ChatRequest is the inbound payload for the chat entry point.
type ChatRequest struct {
	Text string `json:"text"`
}

// ChatResponse carries the final assistant text back to the caller.
type ChatResponse struct {
	Text      string `json:"text"`
	ElapsedMs int64  `json:"elapsed_ms"`
}
