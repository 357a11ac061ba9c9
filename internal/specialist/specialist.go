// Package specialist provides the registry of domain specialists and the
// uniform invocation protocol.
package specialist

import (
	"context"
	"fmt"
	"sync"

	"github.com/meridian-ai/assistant-core/internal/agentpool"
	"github.com/meridian-ai/assistant-core/internal/driver"
	"github.com/meridian-ai/assistant-core/internal/enrich"
	"github.com/meridian-ai/assistant-core/internal/llm"
	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

// Specialist turns a prompt into a response using a fixed system prompt and
// an optional toolset. Specialists never invoke one another; enrichment and
// tool use are their only paths to external data.
type Specialist interface {
	Name() string
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Definition declares a specialist without constructing it.
type Definition struct {
	Name         string
	SystemPrompt string
	Tools        []driver.Tool
}

// Registry holds specialist definitions and memoizes constructed specialists.
// Construction is deferred until first invocation.
type Registry struct {
	pool     *agentpool.Pool
	drv      *driver.Driver
	enricher *enrich.Composite
	modelID  string
	logger   *logger.Logger

	mu       sync.Mutex
	defs     map[string]Definition
	resolved map[string]Specialist
}

// NewRegistry creates an empty registry.
func NewRegistry(pool *agentpool.Pool, drv *driver.Driver, enricher *enrich.Composite, modelID string, log *logger.Logger) *Registry {
	return &Registry{
		pool:     pool,
		drv:      drv,
		enricher: enricher,
		modelID:  modelID,
		logger:   log,
		defs:     make(map[string]Definition),
		resolved: make(map[string]Specialist),
	}
}

// Register adds a specialist definition. Adding a specialist is a
// registration-time action only; the router refers to it by name.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// Names lists registered specialist names.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}

// Get resolves a specialist by name, constructing and memoizing it on first
// use.
func (r *Registry) Get(name string) (Specialist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.resolved[name]; ok {
		return s, nil
	}

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("unknown specialist: %s", name)
	}

	s := &llmSpecialist{
		def:      def,
		pool:     r.pool,
		enricher: r.enricher,
		modelID:  r.modelID,
	}
	r.resolved[name] = s
	return s, nil
}

// llmSpecialist enriches the prompt and drives the LLM through a pooled agent.
type llmSpecialist struct {
	def      Definition
	pool     *agentpool.Pool
	enricher *enrich.Composite
	modelID  string
}

func (s *llmSpecialist) Name() string {
	return s.def.Name
}

func (s *llmSpecialist) Invoke(ctx context.Context, prompt string) (string, error) {
	if block := s.enricher.Enrich(ctx, prompt, s.def.Name); block != "" {
		prompt = block + "\n\n" + prompt
	}

	decls := make([]model.ToolDecl, len(s.def.Tools))
	for i, t := range s.def.Tools {
		decls[i] = t.Decl
	}

	agent, err := s.pool.Get(s.def.SystemPrompt, decls)
	if err != nil {
		return "", fmt.Errorf("failed to get agent for %s: %w", s.def.Name, err)
	}

	return agent.Invoke(ctx, prompt)
}

// AgentConstructor returns the agent pool constructor binding the driver and
// model. The pool keys agents by prompt hash; the executors for a prompt's
// tools are resolved from the registered definitions.
func AgentConstructor(drv *driver.Driver, modelID string, toolsByName map[string]driver.Tool) agentpool.Constructor {
	return func(systemPrompt string, decls []model.ToolDecl) (agentpool.Agent, error) {
		tools := make([]driver.Tool, 0, len(decls))
		for _, decl := range decls {
			t, ok := toolsByName[decl.Name]
			if !ok {
				return nil, fmt.Errorf("no executor registered for tool %s", decl.Name)
			}
			tools = append(tools, t)
		}
		return &pooledAgent{drv: drv, modelID: modelID, system: systemPrompt, tools: tools}, nil
	}
}

// pooledAgent is the concrete handle stored in the agent pool.
type pooledAgent struct {
	drv     *driver.Driver
	modelID string
	system  string
	tools   []driver.Tool
}

func (a *pooledAgent) Invoke(ctx context.Context, prompt string) (string, error) {
	turns := []llm.Turn{{Role: model.RoleUser, Text: prompt}}
	return a.drv.Run(ctx, a.modelID, a.system, turns, a.tools)
}
