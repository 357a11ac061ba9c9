// Package respproc cleans draft responses: routing preambles are stripped,
// markdown is repaired and domain disclaimers are appended. Processing is
// idempotent.
package respproc

import (
	"regexp"
	"strings"
)

// preamblePatterns match routing or meta prefixes leaked by the model.
var preamblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^routing (?:you |this )?to [^.:\n]+[.:]\s*`),
	regexp.MustCompile(`(?i)^as an ai(?: language model| assistant)?,?\s*`),
	regexp.MustCompile(`(?i)^\[(?:aviation|formula1|business_finance|universal|research_knowledge|math|english|aws|legal)\]\s*`),
	regexp.MustCompile(`(?i)^(?:sure|certainly|of course)[,!]\s+(?:let me|here is|here's)[^.\n]*[.:]\s*`),
}

// Disclaimers by specialist domain. Appended once; reprocessing detects them.
var disclaimers = map[string]string{
	"business_finance": "This is general information, not individual financial advice.",
	"legal":            "This is general legal information, not legal advice.",
	"aviation":         "Do not use this information for flight planning or navigation.",
}

// Processor cleans responses for a given routing decision.
type Processor struct{}

// New creates a response processor.
func New() *Processor {
	return &Processor{}
}

// Process cleans text for the specialist it came from. Process(Process(x))
// equals Process(x).
func (p *Processor) Process(text, specialist string) string {
	out := strings.TrimSpace(text)
	out = stripPreambles(out)
	out = repairFences(out)
	out = appendDisclaimer(out, specialist)
	return strings.TrimSpace(out)
}

func stripPreambles(text string) string {
	for changed := true; changed; {
		changed = false
		for _, re := range preamblePatterns {
			if trimmed := re.ReplaceAllString(text, ""); trimmed != text {
				text = strings.TrimSpace(trimmed)
				changed = true
			}
		}
	}
	return text
}

// repairFences closes an unbalanced trailing code fence.
func repairFences(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text = strings.TrimRight(text, "\n") + "\n```"
	}
	return text
}

func appendDisclaimer(text, specialist string) string {
	disclaimer, ok := disclaimers[specialist]
	if !ok {
		return text
	}
	if strings.Contains(text, disclaimer) {
		return text
	}
	return text + "\n\n_" + disclaimer + "_"
}
