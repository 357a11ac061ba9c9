// Package driver runs tool-using LLM conversations, keeping the message
// history valid for the provider's tool-use protocol.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/llm"
	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
	"github.com/meridian-ai/assistant-core/pkg/metrics"
)

// ExecuteFunc runs a tool against its declared input schema. It returns a
// textual success payload or an error; it must not have side effects beyond
// its declared contract.
type ExecuteFunc func(ctx context.Context, input json.RawMessage) (string, error)

// Tool pairs a declaration with its executor.
type Tool struct {
	Decl    model.ToolDecl
	Execute ExecuteFunc
}

// ErrMaxDepth is returned when the tool loop exceeds its depth guard.
var ErrMaxDepth = errors.New("tool conversation exceeded maximum depth")

// DefaultMaxDepth guards against infinite tool loops.
const DefaultMaxDepth = 8

// DefaultToolTimeout bounds a single tool execution.
const DefaultToolTimeout = 10 * time.Second

// Options configures a Driver.
type Options struct {
	MaxDepth    int
	ToolTimeout time.Duration
	Strict      bool
	MaxTokens   int
}

// Driver drives multi-turn conversations that may request tool execution.
type Driver struct {
	client llm.Client
	opts   Options
	logger *logger.Logger
}

// New creates a conversation driver.
func New(client llm.Client, opts Options, log *logger.Logger) *Driver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = DefaultToolTimeout
	}
	return &Driver{client: client, opts: opts, logger: log}
}

// Run drives the conversation until the model replies with text only, the
// depth guard trips, or an error surfaces. Tool failures are reported back to
// the model as structured error results and the loop continues.
func (d *Driver) Run(ctx context.Context, modelID, system string, turns []llm.Turn, tools []Tool) (string, error) {
	decls := make([]model.ToolDecl, len(tools))
	byName := make(map[string]Tool, len(tools))
	for i, t := range tools {
		decls[i] = t.Decl
		byName[t.Decl.Name] = t
	}

	history := RepairHistory(turns, d.opts.Strict)

	for depth := 0; depth < d.opts.MaxDepth; depth++ {
		// Earlier failures or UI rewinds may have corrupted the history;
		// repair before every send.
		history = RepairHistory(history, d.opts.Strict)

		resp, err := d.client.CompleteWithTools(ctx, &llm.ToolRequest{
			Model:     modelID,
			System:    system,
			Turns:     history,
			Tools:     decls,
			MaxTokens: d.opts.MaxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("LLM call failed: %w", err)
		}
		metrics.RecordLLMCall(modelID, "ok", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)

		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		d.logger.Debug("executing tool calls",
			zap.Int("count", len(resp.ToolCalls)),
			zap.Int("depth", depth),
		)

		results := d.executeAll(ctx, byName, resp.ToolCalls)

		history = append(history,
			llm.Turn{Role: model.RoleAssistant, Text: resp.Text, ToolCalls: resp.ToolCalls},
			llm.Turn{Role: model.RoleUser, ToolResults: results},
		)
	}

	return "", ErrMaxDepth
}

// executeAll runs the requested tools in parallel, one goroutine per call,
// each bounded by the per-tool timeout. Results are returned in call order.
func (d *Driver) executeAll(ctx context.Context, byName map[string]Tool, calls []model.ToolCall) []model.ToolResult {
	results := make([]model.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call model.ToolCall) {
			defer wg.Done()
			results[i] = d.executeOne(ctx, byName, call)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (d *Driver) executeOne(ctx context.Context, byName map[string]Tool, call model.ToolCall) model.ToolResult {
	tool, ok := byName[call.Name]
	if !ok {
		metrics.ToolExecutions.WithLabelValues(call.Name, "unknown").Inc()
		return model.ToolResult{
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("unknown tool: %s", call.Name),
			IsError:    true,
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, d.opts.ToolTimeout)
	defer cancel()

	start := time.Now()
	output, err := tool.Execute(execCtx, call.Input)
	metrics.ToolDuration.WithLabelValues(call.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		status := "error"
		content := fmt.Sprintf("tool %s failed: %v", call.Name, err)
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
			content = fmt.Sprintf("tool %s timed out after %s", call.Name, d.opts.ToolTimeout)
		}
		metrics.ToolExecutions.WithLabelValues(call.Name, status).Inc()
		d.logger.Warn("tool execution failed",
			zap.String("tool", call.Name),
			zap.Error(err),
		)
		return model.ToolResult{ToolCallID: call.ID, Content: content, IsError: true}
	}

	metrics.ToolExecutions.WithLabelValues(call.Name, "ok").Inc()
	return model.ToolResult{ToolCallID: call.ID, Content: output}
}
