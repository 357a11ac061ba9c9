// Package personalize rewrites draft responses for the user's expertise
// level.
package personalize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/cache"
	"github.com/meridian-ai/assistant-core/internal/llm"
	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

// minDraftLength is the shortest draft worth rewriting.
const minDraftLength = 200

// Personalizer rewrites drafts via the LLM and caches the result so repeat
// application within the cache TTL is idempotent.
type Personalizer struct {
	client  llm.Client
	cache   *cache.ResponseCache
	modelID string
	logger  *logger.Logger
}

// New creates a personalizer.
func New(client llm.Client, c *cache.ResponseCache, modelID string, log *logger.Logger) *Personalizer {
	return &Personalizer{client: client, cache: c, modelID: modelID, logger: log}
}

// Apply returns the draft adjusted for the user's expertise level. Drafts for
// intermediate users and short drafts pass through untouched. Any failure
// falls back to the original draft.
func (p *Personalizer) Apply(ctx context.Context, userID, query, draft string, level model.ExpertiseLevel) string {
	if level == model.ExpertiseIntermediate || level == "" {
		return draft
	}
	if len(draft) < minDraftLength {
		return draft
	}

	key := cache.Key(fmt.Sprintf("personalize|%s|%s|%s", level, query, draft), p.modelID, userID)
	if cached, ok := p.cache.Get(ctx, key); ok {
		return cached
	}

	instruction := instructionFor(level)
	resp, err := p.client.Complete(ctx, &llm.CompletionRequest{
		Model:  p.modelID,
		System: "You rewrite assistant responses for a target audience. Preserve all facts, numbers and caveats. Return only the rewritten response.",
		Messages: []llm.ChatMessage{{
			Role:    "user",
			Content: fmt.Sprintf("%s\n\nResponse to rewrite:\n%s", instruction, draft),
		}},
	})
	if err != nil || resp.Content == "" {
		p.logger.Warn("personalization failed, using draft", zap.Error(err))
		return draft
	}

	p.cache.Set(ctx, key, query, resp.Content)
	return resp.Content
}

func instructionFor(level model.ExpertiseLevel) string {
	switch level {
	case model.ExpertiseBeginner:
		return "Rewrite the response for a beginner: plain language, define any jargon, keep it short."
	case model.ExpertiseAdvanced:
		return "Rewrite the response for an expert: be dense, keep technical terms, drop introductory explanations."
	default:
		return "Return the response unchanged."
	}
}
