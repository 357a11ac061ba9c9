// Package router implements the deterministic priority-ranked rule engine
// that maps a prompt to a specialist, a direct literal response, or a default
// fall-through.
package router

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/pkg/logger"
	"github.com/meridian-ai/assistant-core/pkg/metrics"
)

// Specialist names referenced by the rule table. The specialist map itself is
// injected at the invocation layer; the router only deals in names.
const (
	SpecialistAviation        = "aviation"
	SpecialistFormula1        = "formula1"
	SpecialistUniversal       = "universal"
	SpecialistBusinessFinance = "business_finance"
	SpecialistMath            = "math"
	SpecialistEnglish         = "english"
	SpecialistAWS             = "aws"
	SpecialistLegal           = "legal"
	SpecialistResearch        = "research_knowledge"
)

// Decision is the router's output for one prompt.
type Decision struct {
	Rule       string
	Priority   int
	Specialist string
	// EnhancedPrompt carries the prompt handed to the specialist, or the
	// literal response text when Direct is set. Empty Specialist with empty
	// EnhancedPrompt means fall through to the default agent.
	EnhancedPrompt string
	Direct         bool
	Prediction     bool
}

// Fallthrough reports whether the orchestrator should use the default agent.
func (d Decision) Fallthrough() bool {
	return d.Specialist == "" && !d.Direct
}

// query is the preprocessed prompt handed to rule predicates.
type query struct {
	prompt   string
	lower    string
	words    []string
	wordSet  map[string]struct{}
	datetime string
}

type rule struct {
	name     string
	priority int
	match    func(q *query) bool
	action   func(q *query) Decision
}

// Router evaluates the rule table in priority order.
type Router struct {
	rules   []rule
	nNumber *regexp.Regexp
	logger  *logger.Logger
}

// nNumberPattern matches a U.S. aircraft registration token.
var nNumberPattern = regexp.MustCompile(`^N[0-9][0-9A-Z]{2,}$`)

// New builds the router with its precomputed matchers.
func New(log *logger.Logger) *Router {
	r := &Router{
		nNumber: nNumberPattern,
		logger:  log,
	}
	r.rules = r.buildRules()
	// Stable sort keeps insertion order for equal priorities.
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].priority > r.rules[j].priority
	})
	return r
}

// Route classifies the prompt. Predicates are total: a panicking predicate is
// treated as a non-match and logged.
func (r *Router) Route(prompt, datetimeContext string) Decision {
	q := newQuery(prompt, datetimeContext)

	for _, rl := range r.rules {
		if r.safeMatch(rl, q) {
			decision := rl.action(q)
			decision.Rule = rl.name
			decision.Priority = rl.priority
			r.logger.Info("router matched",
				zap.String("rule", rl.name),
				zap.Int("priority", rl.priority),
				zap.String("specialist", decision.Specialist),
			)
			metrics.RecordRouterDecision(rl.name, decision.Specialist)
			return decision
		}
	}

	metrics.RecordRouterDecision("default", "")
	return Decision{Rule: "default", Priority: 0}
}

func (r *Router) safeMatch(rl rule, q *query) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("router predicate panicked",
				zap.String("rule", rl.name),
				zap.Any("panic", rec),
			)
			matched = false
		}
	}()
	return rl.match(q)
}

func newQuery(prompt, datetimeContext string) *query {
	lower := strings.ToLower(prompt)
	rawWords := strings.Fields(lower)
	words := make([]string, 0, len(rawWords))
	wordSet := make(map[string]struct{}, len(rawWords))
	for _, w := range rawWords {
		trimmed := strings.Trim(w, ".,!?;:'\"()")
		if trimmed == "" {
			continue
		}
		words = append(words, trimmed)
		wordSet[trimmed] = struct{}{}
	}
	return &query{
		prompt:   prompt,
		lower:    lower,
		words:    words,
		wordSet:  wordSet,
		datetime: datetimeContext,
	}
}

// containsAny matches single-token keywords by set membership and multi-word
// keywords by substring.
func (q *query) containsAny(keywords []string) bool {
	for _, kw := range keywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(q.lower, kw) {
				return true
			}
			continue
		}
		if _, ok := q.wordSet[kw]; ok {
			return true
		}
	}
	return false
}

func (r *Router) buildRules() []rule {
	return []rule{
		{
			name:     "time",
			priority: 100,
			match: func(q *query) bool {
				return q.containsAny(timeKeywords) && len(q.words) < 5
			},
			action: func(q *query) Decision {
				return Decision{Direct: true, EnhancedPrompt: "It is " + q.datetime}
			},
		},
		{
			name:     "aviation",
			priority: 90,
			match: func(q *query) bool {
				return r.hasNNumber(q) || q.containsAny(aviationKeywords)
			},
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistAviation, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "formula1",
			priority: 80,
			match: func(q *query) bool {
				return q.containsAny(formula1Keywords)
			},
			action: func(q *query) Decision {
				enhanced := "IMPORTANT: You have access to live F1 data. Use it to answer with current standings, schedules and results.\n\n" + q.prompt
				return Decision{Specialist: SpecialistFormula1, EnhancedPrompt: enhanced}
			},
		},
		{
			name:     "prediction",
			priority: 75,
			match: func(q *query) bool {
				return q.containsAny(predictionKeywords)
			},
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistUniversal, EnhancedPrompt: q.prompt, Prediction: true}
			},
		},
		{
			name:     "crypto",
			priority: 70,
			match: func(q *query) bool {
				return q.containsAny(cryptoKeywords)
			},
			action: func(q *query) Decision {
				enhanced := "NOTE: Live cryptocurrency market data is attached below. Prefer it over any remembered prices.\n\n" + q.prompt
				return Decision{Specialist: SpecialistBusinessFinance, EnhancedPrompt: enhanced}
			},
		},
		{
			name:     "financial",
			priority: 65,
			match: func(q *query) bool {
				return q.containsAny(financeKeywords)
			},
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistBusinessFinance, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "math",
			priority: 60,
			match:    func(q *query) bool { return q.containsAny(mathKeywords) },
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistMath, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "english",
			priority: 60,
			match:    func(q *query) bool { return q.containsAny(englishKeywords) },
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistEnglish, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "aws",
			priority: 60,
			match:    func(q *query) bool { return q.containsAny(awsKeywords) },
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistAWS, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "legal",
			priority: 60,
			match:    func(q *query) bool { return q.containsAny(legalKeywords) },
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistLegal, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "web",
			priority: 50,
			match:    func(q *query) bool { return q.containsAny(webKeywords) },
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistResearch, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "research",
			priority: 40,
			match:    func(q *query) bool { return q.containsAny(researchKeywords) },
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistResearch, EnhancedPrompt: q.prompt}
			},
		},
		{
			name:     "realtime",
			priority: 30,
			match:    func(q *query) bool { return q.containsAny(realtimeKeywords) },
			action: func(q *query) Decision {
				return Decision{Specialist: SpecialistResearch, EnhancedPrompt: q.prompt}
			},
		},
	}
}

// hasNNumber detects an aircraft registration token. A matching token counts
// when the prompt has aviation context, or when the prompt starts with the
// token and is short. Tokens adjacent to identifier-like words never count.
func (r *Router) hasNNumber(q *query) bool {
	for i, w := range q.words {
		token := strings.ToUpper(w)
		if !r.nNumber.MatchString(token) {
			continue
		}
		if r.excludedNeighbor(q, i) {
			continue
		}
		if q.containsAny(aviationContextKeywords) {
			return true
		}
		if i == 0 && len(q.words) < 6 {
			return true
		}
	}
	return false
}

func (r *Router) excludedNeighbor(q *query, idx int) bool {
	for _, excl := range nNumberExclusions {
		if idx > 0 && q.words[idx-1] == excl {
			return true
		}
		if idx+1 < len(q.words) && q.words[idx+1] == excl {
			return true
		}
	}
	return false
}
