package driver

import (
	"fmt"

	"github.com/meridian-ai/assistant-core/internal/llm"
	"github.com/meridian-ai/assistant-core/internal/model"
)

// neutralContinuation replaces a user turn whose content was emptied by
// orphan removal so the provider still sees a valid conversation.
const neutralContinuation = "Please continue."

// RepairHistory makes a conversation history valid for the tool-use protocol.
// It drops tool results that do not answer a tool call in the immediately
// preceding assistant turn, replaces emptied user turns with a neutral
// continuation, and, in strict mode, synthesizes error results for tool calls
// left unanswered by anything but the final assistant turn.
//
// The input is not modified; callers get a repaired copy.
func RepairHistory(turns []llm.Turn, strict bool) []llm.Turn {
	repaired := make([]llm.Turn, 0, len(turns))

	lastAssistant := -1
	for i, t := range turns {
		if t.Role == model.RoleAssistant {
			lastAssistant = i
		}
	}

	for i, t := range turns {
		switch t.Role {
		case model.RoleUser:
			repaired = append(repaired, repairUserTurn(turns, i, t))
		case model.RoleAssistant:
			repaired = append(repaired, t)
			if strict && i != lastAssistant {
				if synth := synthesizeMissingResults(turns, i, t); synth != nil {
					// The answered ids live in the following user turn; any
					// synthesized leftovers are merged there by repairUserTurn
					// on the next iteration, or appended as a fresh turn when
					// no user turn follows.
					if i+1 >= len(turns) || turns[i+1].Role != model.RoleUser {
						repaired = append(repaired, llm.Turn{Role: model.RoleUser, ToolResults: synth})
					}
				}
			}
		}
	}

	if strict {
		repaired = fillStrictGaps(repaired)
	}

	return repaired
}

// repairUserTurn drops orphan tool results from a user turn. A result is an
// orphan when its id is not declared by the immediately preceding assistant
// turn.
func repairUserTurn(turns []llm.Turn, idx int, t llm.Turn) llm.Turn {
	allowed := map[string]struct{}{}
	if idx > 0 && turns[idx-1].Role == model.RoleAssistant {
		for _, tc := range turns[idx-1].ToolCalls {
			allowed[tc.ID] = struct{}{}
		}
	}

	var kept []model.ToolResult
	for _, tr := range t.ToolResults {
		if _, ok := allowed[tr.ToolCallID]; ok {
			kept = append(kept, tr)
		}
	}

	out := llm.Turn{Role: model.RoleUser, Text: t.Text, ToolResults: kept}
	if out.Text == "" && len(out.ToolResults) == 0 {
		out.Text = neutralContinuation
	}
	return out
}

// synthesizeMissingResults returns error results for tool calls in an
// assistant turn that the following user turn does not answer.
func synthesizeMissingResults(turns []llm.Turn, idx int, t llm.Turn) []model.ToolResult {
	answered := map[string]struct{}{}
	if idx+1 < len(turns) && turns[idx+1].Role == model.RoleUser {
		for _, tr := range turns[idx+1].ToolResults {
			answered[tr.ToolCallID] = struct{}{}
		}
	}

	var synth []model.ToolResult
	for _, tc := range t.ToolCalls {
		if _, ok := answered[tc.ID]; !ok {
			synth = append(synth, model.ToolResult{
				ToolCallID: tc.ID,
				Content:    fmt.Sprintf("tool %s did not return a result", tc.Name),
				IsError:    true,
			})
		}
	}
	return synth
}

// fillStrictGaps merges synthesized error results into the user turn that
// follows each non-final assistant turn so every tool call is answered.
func fillStrictGaps(turns []llm.Turn) []llm.Turn {
	lastAssistant := -1
	for i, t := range turns {
		if t.Role == model.RoleAssistant {
			lastAssistant = i
		}
	}

	out := make([]llm.Turn, len(turns))
	copy(out, turns)

	for i, t := range out {
		if t.Role != model.RoleAssistant || i == lastAssistant || len(t.ToolCalls) == 0 {
			continue
		}
		if i+1 >= len(out) || out[i+1].Role != model.RoleUser {
			continue
		}
		synth := synthesizeMissingResults(out, i, t)
		if len(synth) == 0 {
			continue
		}
		next := out[i+1]
		next.ToolResults = append(next.ToolResults, synth...)
		if next.Text == neutralContinuation {
			next.Text = ""
		}
		out[i+1] = next
	}

	return out
}

// ValidateHistory checks the pairing invariants without repairing. It returns
// an error describing the first violation found.
func ValidateHistory(turns []llm.Turn) error {
	for i, t := range turns {
		switch t.Role {
		case model.RoleUser:
			allowed := map[string]struct{}{}
			if i > 0 && turns[i-1].Role == model.RoleAssistant {
				for _, tc := range turns[i-1].ToolCalls {
					allowed[tc.ID] = struct{}{}
				}
			}
			for _, tr := range t.ToolResults {
				if _, ok := allowed[tr.ToolCallID]; !ok {
					return fmt.Errorf("orphan tool_result %q at turn %d", tr.ToolCallID, i)
				}
			}
		case model.RoleAssistant:
			if len(t.ToolCalls) == 0 || i == len(turns)-1 {
				continue
			}
			answered := map[string]struct{}{}
			if i+1 < len(turns) && turns[i+1].Role == model.RoleUser {
				for _, tr := range turns[i+1].ToolResults {
					answered[tr.ToolCallID] = struct{}{}
				}
			}
			for _, tc := range t.ToolCalls {
				if _, ok := answered[tc.ID]; !ok {
					return fmt.Errorf("unanswered tool_use %q at turn %d", tc.ID, i)
				}
			}
		}
	}
	return nil
}
