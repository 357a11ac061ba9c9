// Package orchestrator binds the pipeline components into one
// request-to-response path.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/cache"
	"github.com/meridian-ai/assistant-core/internal/driver"
	"github.com/meridian-ai/assistant-core/internal/knowledge"
	"github.com/meridian-ai/assistant-core/internal/llm"
	"github.com/meridian-ai/assistant-core/internal/model"
	natsclient "github.com/meridian-ai/assistant-core/internal/nats"
	"github.com/meridian-ai/assistant-core/internal/personalize"
	"github.com/meridian-ai/assistant-core/internal/profile"
	"github.com/meridian-ai/assistant-core/internal/respproc"
	"github.com/meridian-ai/assistant-core/internal/router"
	"github.com/meridian-ai/assistant-core/internal/session"
	"github.com/meridian-ai/assistant-core/internal/specialist"
	"github.com/meridian-ai/assistant-core/internal/store"
	"github.com/meridian-ai/assistant-core/internal/timectx"
	"github.com/meridian-ai/assistant-core/pkg/logger"
	"github.com/meridian-ai/assistant-core/pkg/metrics"
	"github.com/meridian-ai/assistant-core/pkg/tracing"
)

// userFacingError is what the user sees when a failure surfaces.
const userFacingError = "An error occurred while processing your request. Please try again."

// contextWindow is how many trailing messages feed the default agent prompt.
const contextWindow = 10

// knowledgeActionKeywords switch a request onto the knowledge path.
var knowledgeActionKeywords = []string{"remember", "store", "my birthday", "personal", "save this"}

// storeIntentKeywords mark a knowledge request as a store rather than a
// retrieval.
var storeIntentKeywords = []string{"remember", "store", "save this", "note that", "keep in mind"}

// Telemetry publishes pipeline observations. Failures are never fatal.
type Telemetry interface {
	PublishTelemetry(event *natsclient.TelemetryEvent) error
}

// Options carries orchestrator tuning knobs.
type Options struct {
	ModelID        string
	RequestTimeout time.Duration
	MaxRetries     uint64
}

// Orchestrator is the single entry point of the query pipeline.
type Orchestrator struct {
	opts      Options
	client    llm.Client
	router    *router.Router
	registry  *specialist.Registry
	cache     *cache.ResponseCache
	knowledge *knowledge.Store
	profiles  *profile.Manager
	timeCtx   *timectx.Provider
	personal  *personalize.Personalizer
	processor *respproc.Processor
	sessions  *session.Manager
	convStore *store.ConversationStore
	telemetry Telemetry
	logger    *logger.Logger
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Client    llm.Client
	Router    *router.Router
	Registry  *specialist.Registry
	Cache     *cache.ResponseCache
	Knowledge *knowledge.Store
	Profiles  *profile.Manager
	TimeCtx   *timectx.Provider
	Personal  *personalize.Personalizer
	Processor *respproc.Processor
	Sessions  *session.Manager
	ConvStore *store.ConversationStore
	Telemetry Telemetry
	Logger    *logger.Logger
}

// New wires an orchestrator from its dependencies.
func New(opts Options, deps Deps) *Orchestrator {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 120 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Orchestrator{
		opts:      opts,
		client:    deps.Client,
		router:    deps.Router,
		registry:  deps.Registry,
		cache:     deps.Cache,
		knowledge: deps.Knowledge,
		profiles:  deps.Profiles,
		timeCtx:   deps.TimeCtx,
		personal:  deps.Personal,
		processor: deps.Processor,
		sessions:  deps.Sessions,
		convStore: deps.ConvStore,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
	}
}

// HandleUserMessage runs the full pipeline for one utterance and returns the
// final assistant text. Component failures are contained where the error
// design allows; surfaced failures come back as an error-flagged assistant
// message rather than a Go error.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, userID, text string) (string, error) {
	t0 := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.opts.RequestTimeout)
	defer cancel()

	ctx, span := tracing.Tracer("orchestrator").Start(ctx, "handle_user_message")
	defer span.End()

	o.emit("user_query", userID, map[string]any{"query": text})

	// Step 1-2: record the user turn and persist. Storage failures are
	// logged; the session remains authoritative.
	messages := o.sessions.Append(ctx, userID, model.NewUserMessage(text))
	o.saveConversation(ctx, userID, messages)

	// Step 3: profile extraction.
	prof := o.profiles.UpdateFromMessage(ctx, userID, text)

	// Step 4: datetime and user context.
	datetimeCtx := o.timeCtx.DatetimeContext(prof.Timezone)
	userCtx := o.timeCtx.UserContext(prof)

	// Step 5: cache probe.
	cacheKey := cache.Key(text, o.opts.ModelID, userID)
	draft, cacheHit := o.cache.Get(ctx, cacheKey)

	var decision router.Decision
	var failed bool

	if !cacheHit {
		// Step 6-8: route and produce the draft.
		if isKnowledgeAction(text) {
			draft = o.handleKnowledge(ctx, text)
			decision = router.Decision{Rule: "knowledge"}
		} else {
			draft, decision, failed = o.handleTeacher(ctx, userID, text, datetimeCtx, userCtx, messages)
		}

		o.emit("router_decision", userID, map[string]any{
			"rule":       decision.Rule,
			"priority":   decision.Priority,
			"specialist": decision.Specialist,
		})

		// Step 9: cache the draft. Never for failures; never for
		// time-sensitive queries (the cache enforces the filter itself).
		if !failed {
			o.cache.Set(ctx, cacheKey, text, draft)
		}
	}

	final := draft
	if !failed {
		// Step 10: personalization, uniformly for all paths.
		final = o.personal.Apply(ctx, userID, text, draft, prof.ExpertiseLevel)

		// Step 11: response processing.
		final = o.processor.Process(final, decision.Specialist)
	}

	// Step 12: record the assistant turn and persist.
	var assistantMsg model.Message
	if failed {
		assistantMsg = model.NewErrorMessage(final)
	} else {
		assistantMsg = model.NewAssistantMessage(final)
	}
	messages = o.sessions.Append(ctx, userID, assistantMsg)
	o.saveConversation(ctx, userID, messages)

	// Step 13: telemetry.
	elapsed := time.Since(t0)
	status := "ok"
	if failed {
		status = "error"
	}
	metrics.PipelineDuration.WithLabelValues(decision.Rule, status).Observe(elapsed.Seconds())
	o.emit("assistant_response", userID, map[string]any{
		"t_total_ms": elapsed.Milliseconds(),
		"cache_hit":  cacheHit,
		"status":     status,
	})

	return final, nil
}

// ClearChat starts a new conversation for the user. Prior payload blobs are
// retained in blob storage.
func (o *Orchestrator) ClearChat(userID string) {
	o.sessions.Clear(userID)
}

// Logout drops the user's session state.
func (o *Orchestrator) Logout(userID string) {
	o.sessions.Drop(userID)
}

// handleTeacher runs the routed specialist path. It returns the draft, the
// routing decision and whether the draft is a surfaced failure.
func (o *Orchestrator) handleTeacher(ctx context.Context, userID, text, datetimeCtx, userCtx string, messages []model.Message) (string, router.Decision, bool) {
	decision := o.router.Route(text, datetimeCtx)

	// Direct literal: no LLM call.
	if decision.Direct {
		return decision.EnhancedPrompt, decision, false
	}

	if decision.Fallthrough() {
		draft, err := o.invokeDefaultAgent(ctx, text, datetimeCtx, userCtx, messages)
		if err != nil {
			o.surface(userID, err)
			return userFacingError, decision, true
		}
		return draft, decision, false
	}

	spec, err := o.registry.Get(decision.Specialist)
	if err != nil {
		// The rule table can name specialists the current mode does not
		// register. Answer with the default agent instead of failing.
		o.logger.Warn("routed specialist not registered, using default agent",
			zap.String("specialist", decision.Specialist), zap.Error(err))
		decision.Specialist = ""
		draft, err := o.invokeDefaultAgent(ctx, text, datetimeCtx, userCtx, messages)
		if err != nil {
			o.surface(userID, err)
			return userFacingError, decision, true
		}
		return draft, decision, false
	}

	prompt := composePrompt(datetimeCtx, userCtx, decision.EnhancedPrompt)

	var draft string
	invoke := func() error {
		var invokeErr error
		draft, invokeErr = spec.Invoke(ctx, prompt)
		return classifyError(invokeErr)
	}
	if err := o.withRetry(ctx, invoke); err != nil {
		o.surface(userID, err)
		return userFacingError, decision, true
	}

	return draft, decision, false
}

// invokeDefaultAgent calls the teacher agent with a context-joined prompt
// covering the trailing conversation window.
func (o *Orchestrator) invokeDefaultAgent(ctx context.Context, text, datetimeCtx, userCtx string, messages []model.Message) (string, error) {
	window := messages
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}

	var history strings.Builder
	for _, msg := range window {
		fmt.Fprintf(&history, "%s: %s\n", msg.Role, msg.Content)
	}

	prompt := composePrompt(datetimeCtx, userCtx,
		fmt.Sprintf("Recent conversation:\n%s\nRespond to the latest user message: %s", history.String(), text))

	var draft string
	invoke := func() error {
		resp, err := o.client.Complete(ctx, &llm.CompletionRequest{
			Model:  o.opts.ModelID,
			System: specialist.TeacherPrompt(),
			Messages: []llm.ChatMessage{
				{Role: string(model.RoleUser), Content: prompt},
			},
		})
		if err != nil {
			return classifyError(err)
		}
		draft = resp.Content
		return nil
	}
	if err := o.withRetry(ctx, invoke); err != nil {
		return "", err
	}
	return draft, nil
}

// handleKnowledge routes a query onto the knowledge path using the
// store-vs-retrieve heuristic on the user's wording. Knowledge operations
// never surface errors; an unconfigured store degrades to a no-op reply.
func (o *Orchestrator) handleKnowledge(ctx context.Context, text string) string {
	if !o.knowledge.Enabled() {
		return "I don't have a knowledge base configured, so I can't store or recall personal information right now."
	}

	topics := knowledge.ExtractTopics(text)

	if hasAny(text, storeIntentKeywords) {
		if len(topics) == 0 {
			return "I couldn't work out what to store from that. Could you rephrase it?"
		}
		stored := 0
		for _, topic := range topics {
			if o.knowledge.StoreEntry(ctx, topic, text, "user") {
				stored++
			}
		}
		if stored == 0 {
			return "I wasn't able to store that just now."
		}
		return fmt.Sprintf("Got it. I've stored that under %q.", topics[0])
	}

	for _, topic := range topics {
		if entry := o.knowledge.Retrieve(ctx, topic, knowledge.DefaultMinScore); entry != nil {
			return entry.Data
		}
	}
	return "I don't have anything stored about that yet."
}

// saveConversation persists the session; failures are logged and swallowed
// so the turn still returns a response.
func (o *Orchestrator) saveConversation(ctx context.Context, userID string, messages []model.Message) {
	if err := o.convStore.Save(ctx, userID, messages); err != nil {
		o.logger.Error("conversation save failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		o.emit("error", userID, map[string]any{"stage": "persistence", "error": err.Error()})
	}
}

// withRetry retries transient failures with exponential backoff: 1s initial,
// factor 2, 10s cap, three retries.
func (o *Orchestrator) withRetry(ctx context.Context, op backoff.Operation) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), o.opts.MaxRetries))
}

// classifyError separates retryable transient failures from permanent ones.
// Provider 4xx responses (other than 429) will fail the same way on every
// attempt, so they fail fast.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrMaxDepth) || errors.Is(err, context.Canceled) {
		return backoff.Permanent(err)
	}
	if status, ok := providerStatus(err); ok {
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
	}
	return err
}

// providerStatus extracts the HTTP status from an LLM provider API error.
func providerStatus(err error) (int, bool) {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return openaiErr.HTTPStatusCode, true
	}
	return 0, false
}

func (o *Orchestrator) surface(userID string, err error) {
	o.logger.Error("pipeline stage failed", zap.String("user_id", userID), zap.Error(err))
	o.emit("error", userID, map[string]any{"error": err.Error()})
}

func (o *Orchestrator) emit(eventType, userID string, data map[string]any) {
	if o.telemetry == nil {
		return
	}
	if err := o.telemetry.PublishTelemetry(&natsclient.TelemetryEvent{
		Type:   eventType,
		UserID: userID,
		Data:   data,
	}); err != nil {
		o.logger.Warn("telemetry publish failed", zap.Error(err))
	}
}

func composePrompt(datetimeCtx, userCtx, body string) string {
	parts := []string{"CURRENT TIME: " + datetimeCtx}
	if userCtx != "" {
		parts = append(parts, userCtx)
	}
	parts = append(parts, body)
	return strings.Join(parts, "\n\n")
}

func isKnowledgeAction(text string) bool {
	return hasAny(text, knowledgeActionKeywords)
}

func hasAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
