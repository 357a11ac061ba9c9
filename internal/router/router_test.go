package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ai/assistant-core/pkg/logger"
)

const testDatetime = "Friday, March 15, 2024 at 10:00 AM UTC"

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return New(logger.NewNop())
}

func TestRoute_TimeDirect(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("What time is it?", testDatetime)

	assert.Equal(t, "time", d.Rule)
	assert.Equal(t, 100, d.Priority)
	assert.True(t, d.Direct)
	assert.Equal(t, "It is "+testDatetime, d.EnhancedPrompt)
	assert.False(t, d.Fallthrough())
}

func TestRoute_TimeKeywordInLongPromptDoesNotShortCircuit(t *testing.T) {
	r := newTestRouter(t)

	// Five or more words disqualify the direct time answer.
	d := r.Route("tell me about the history of clocks and time", testDatetime)

	assert.NotEqual(t, "time", d.Rule)
	assert.False(t, d.Direct)
}

func TestRoute_AviationByNNumberWithContext(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("Where is N628TS now?", testDatetime)

	assert.Equal(t, "aviation", d.Rule)
	assert.Equal(t, 90, d.Priority)
	assert.Equal(t, SpecialistAviation, d.Specialist)
	assert.Equal(t, "Where is N628TS now?", d.EnhancedPrompt)
}

func TestRoute_AviationByLeadingNNumberShortPrompt(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("N12345 status", testDatetime)

	assert.Equal(t, "aviation", d.Rule)
}

func TestRoute_NNumberExcludedNeighbors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		prompt string
	}{
		{"phone before", "my phone N6285 please"},
		{"ssn before", "their ssn N1234 leaked"},
		{"id after", "badge N9876 id missing"},
		{"highway before", "is highway N9503 open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Route(tt.prompt, testDatetime)
			assert.NotEqual(t, "aviation", d.Rule, "prompt %q", tt.prompt)
		})
	}
}

func TestRoute_NNumberWithoutContextInLongPrompt(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("the serial code printed on it reads N12345 apparently nothing else", testDatetime)

	assert.NotEqual(t, "aviation", d.Rule)
}

func TestRoute_Formula1EnhancedPrompt(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("When is the next grand prix?", testDatetime)

	require.Equal(t, "formula1", d.Rule)
	assert.Equal(t, SpecialistFormula1, d.Specialist)
	assert.Contains(t, d.EnhancedPrompt, "live F1 data")
	assert.Contains(t, d.EnhancedPrompt, "When is the next grand prix?")
}

func TestRoute_PredictionBeatsCrypto(t *testing.T) {
	r := newTestRouter(t)

	// "will" matches prediction (75), "bitcoin" matches crypto (70).
	d := r.Route("Will bitcoin rise next quarter?", testDatetime)

	assert.Equal(t, "prediction", d.Rule)
	assert.Equal(t, SpecialistUniversal, d.Specialist)
	assert.True(t, d.Prediction)
}

func TestRoute_CryptoLiveDataNotice(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("What is the bitcoin price?", testDatetime)

	require.Equal(t, "crypto", d.Rule)
	assert.Equal(t, SpecialistBusinessFinance, d.Specialist)
	assert.Contains(t, d.EnhancedPrompt, "Live cryptocurrency market data")
}

func TestRoute_EqualPriorityUsesInsertionOrder(t *testing.T) {
	r := newTestRouter(t)

	// math and legal both sit at priority 60; math is registered first.
	d := r.Route("calculate the contract damages", testDatetime)

	assert.Equal(t, "math", d.Rule)
	assert.Equal(t, SpecialistMath, d.Specialist)
}

func TestRoute_SpecialistTable(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		prompt     string
		rule       string
		specialist string
	}{
		{"proofread my essay please and fix the grammar", "english", SpecialistEnglish},
		{"how do I configure an s3 bucket policy", "aws", SpecialistAWS},
		{"is this clause a liability risk", "legal", SpecialistLegal},
		{"summarize this website https://example.com", "web", SpecialistResearch},
		{"research the effects of caffeine", "research", SpecialistResearch},
		{"latest developments in fusion power", "realtime", SpecialistResearch},
		{"how are my stocks doing", "financial", SpecialistBusinessFinance},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			d := r.Route(tt.prompt, testDatetime)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.specialist, d.Specialist)
		})
	}
}

func TestRoute_DefaultFallthrough(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("hello there friend", testDatetime)

	assert.Equal(t, "default", d.Rule)
	assert.Equal(t, 0, d.Priority)
	assert.True(t, d.Fallthrough())
}

func TestRoute_Deterministic(t *testing.T) {
	r := newTestRouter(t)

	first := r.Route("Will bitcoin rise next quarter?", testDatetime)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, r.Route("Will bitcoin rise next quarter?", testDatetime))
	}
}

func TestRoute_PunctuationAndCaseInsensitive(t *testing.T) {
	r := newTestRouter(t)

	d := r.Route("BITCOIN!!!", testDatetime)

	assert.Equal(t, "crypto", d.Rule)
}
