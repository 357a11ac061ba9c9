package driver

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ai/assistant-core/internal/llm"
	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

// scriptedClient replays canned tool responses and records every request.
type scriptedClient struct {
	responses []*llm.ToolResponse
	requests  []*llm.ToolRequest
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "plain"}, nil
}

func (c *scriptedClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	return nil, errors.New("not implemented")
}

func (c *scriptedClient) CompleteWithTools(ctx context.Context, req *llm.ToolRequest) (*llm.ToolResponse, error) {
	c.requests = append(c.requests, req)
	if c.calls >= len(c.responses) {
		return &llm.ToolResponse{Text: "exhausted"}, nil
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func (c *scriptedClient) Name() string     { return "scripted" }
func (c *scriptedClient) Models() []string { return nil }

func echoTool(name string) Tool {
	return Tool{
		Decl: model.ToolDecl{Name: name, Description: name},
		Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "echo:" + string(input), nil
		},
	}
}

func TestRun_TextOnlyResponse(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ToolResponse{
		{Text: "direct answer"},
	}}
	d := New(client, Options{}, logger.NewNop())

	out, err := d.Run(context.Background(), "m1", "system", []llm.Turn{
		{Role: model.RoleUser, Text: "hi"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "direct answer", out)
	assert.Equal(t, 1, client.calls)
}

func TestRun_SingleToolRoundTrip(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ToolResponse{
		{Text: "let me check", ToolCalls: []model.ToolCall{
			{ID: "t1", Name: "lookup", Input: json.RawMessage(`{"q":"x"}`)},
		}},
		{Text: "found it"},
	}}
	d := New(client, Options{}, logger.NewNop())

	out, err := d.Run(context.Background(), "m1", "system", []llm.Turn{
		{Role: model.RoleUser, Text: "hi"},
	}, []Tool{echoTool("lookup")})

	require.NoError(t, err)
	assert.Equal(t, "found it", out)
	require.Equal(t, 2, client.calls)

	// The second request must carry the assistant call turn and a user turn
	// with the matching result.
	second := client.requests[1]
	require.Len(t, second.Turns, 3)
	assert.Equal(t, model.RoleAssistant, second.Turns[1].Role)
	require.Len(t, second.Turns[2].ToolResults, 1)
	result := second.Turns[2].ToolResults[0]
	assert.Equal(t, "t1", result.ToolCallID)
	assert.Equal(t, `echo:{"q":"x"}`, result.Content)
	assert.False(t, result.IsError)
	assert.NoError(t, ValidateHistory(second.Turns))
}

func TestRun_ParallelToolsKeepCallOrder(t *testing.T) {
	var running int32
	var peak int32

	slowTool := func(name string) Tool {
		return Tool{
			Decl: model.ToolDecl{Name: name},
			Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
				cur := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return name, nil
			},
		}
	}

	client := &scriptedClient{responses: []*llm.ToolResponse{
		{ToolCalls: []model.ToolCall{
			{ID: "a", Name: "alpha"},
			{ID: "b", Name: "beta"},
			{ID: "c", Name: "gamma"},
		}},
		{Text: "done"},
	}}
	d := New(client, Options{}, logger.NewNop())

	out, err := d.Run(context.Background(), "m1", "", []llm.Turn{
		{Role: model.RoleUser, Text: "go"},
	}, []Tool{slowTool("alpha"), slowTool("beta"), slowTool("gamma")})

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.GreaterOrEqual(t, peak, int32(2), "tools should run concurrently")

	results := client.requests[1].Turns[2].ToolResults
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ToolCallID)
	assert.Equal(t, "b", results[1].ToolCallID)
	assert.Equal(t, "c", results[2].ToolCallID)
}

func TestRun_ToolErrorReportedToModel(t *testing.T) {
	failing := Tool{
		Decl: model.ToolDecl{Name: "boom"},
		Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "", errors.New("exploded")
		},
	}

	client := &scriptedClient{responses: []*llm.ToolResponse{
		{ToolCalls: []model.ToolCall{{ID: "t1", Name: "boom"}}},
		{Text: "recovered"},
	}}
	d := New(client, Options{}, logger.NewNop())

	out, err := d.Run(context.Background(), "m1", "", []llm.Turn{
		{Role: model.RoleUser, Text: "go"},
	}, []Tool{failing})

	require.NoError(t, err)
	assert.Equal(t, "recovered", out)

	result := client.requests[1].Turns[2].ToolResults[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "exploded")
}

func TestRun_UnknownToolReportedToModel(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ToolResponse{
		{ToolCalls: []model.ToolCall{{ID: "t1", Name: "nope"}}},
		{Text: "ok"},
	}}
	d := New(client, Options{}, logger.NewNop())

	_, err := d.Run(context.Background(), "m1", "", []llm.Turn{
		{Role: model.RoleUser, Text: "go"},
	}, nil)

	require.NoError(t, err)
	result := client.requests[1].Turns[2].ToolResults[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "unknown tool")
}

func TestRun_ToolTimeout(t *testing.T) {
	hang := Tool{
		Decl: model.ToolDecl{Name: "hang"},
		Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}

	client := &scriptedClient{responses: []*llm.ToolResponse{
		{ToolCalls: []model.ToolCall{{ID: "t1", Name: "hang"}}},
		{Text: "moved on"},
	}}
	d := New(client, Options{ToolTimeout: 20 * time.Millisecond}, logger.NewNop())

	out, err := d.Run(context.Background(), "m1", "", []llm.Turn{
		{Role: model.RoleUser, Text: "go"},
	}, []Tool{hang})

	require.NoError(t, err)
	assert.Equal(t, "moved on", out)

	result := client.requests[1].Turns[2].ToolResults[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "timed out")
}

func TestRun_MaxDepthGuard(t *testing.T) {
	// The model always asks for another tool call.
	looping := &llm.ToolResponse{ToolCalls: []model.ToolCall{{ID: "t", Name: "lookup"}}}
	client := &scriptedClient{responses: []*llm.ToolResponse{
		looping, looping, looping, looping, looping,
	}}
	d := New(client, Options{MaxDepth: 3}, logger.NewNop())

	_, err := d.Run(context.Background(), "m1", "", []llm.Turn{
		{Role: model.RoleUser, Text: "go"},
	}, []Tool{echoTool("lookup")})

	require.ErrorIs(t, err, ErrMaxDepth)
	assert.Equal(t, 3, client.calls)
}

func TestRun_RepairsCorruptedInputHistory(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ToolResponse{
		{Text: "fine"},
	}}
	d := New(client, Options{}, logger.NewNop())

	_, err := d.Run(context.Background(), "m1", "", []llm.Turn{
		{Role: model.RoleUser, Text: "", ToolResults: []model.ToolResult{
			{ToolCallID: "stale", Content: "old"},
		}},
	}, nil)

	require.NoError(t, err)
	sent := client.requests[0].Turns
	assert.NoError(t, ValidateHistory(sent))
	assert.Equal(t, "Please continue.", sent[0].Text)
}
