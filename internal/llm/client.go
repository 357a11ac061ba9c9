// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"

	"github.com/meridian-ai/assistant-core/internal/model"
)

// StreamCallback is called for each token during streaming.
type StreamCallback func(token string, index int) error

// CompletionRequest represents a plain text completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	Stream      bool
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Turn is one provider-neutral conversation turn. Assistant turns may carry
// tool calls; user turns may carry the matching tool results.
type Turn struct {
	Role        model.Role
	Text        string
	ToolCalls   []model.ToolCall
	ToolResults []model.ToolResult
}

// ToolRequest is a completion request that exposes tools to the model.
type ToolRequest struct {
	Model     string
	System    string
	Turns     []Turn
	Tools     []model.ToolDecl
	MaxTokens int
}

// ToolResponse is the model's reply to a ToolRequest. When ToolCalls is
// non-empty the caller must execute them and send the results back.
type ToolResponse struct {
	Text       string
	ToolCalls  []model.ToolCall
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// CompleteWithTools sends one turn of a tool-using conversation.
	CompleteWithTools(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}
