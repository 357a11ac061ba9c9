// Package enrich provides real-time data enrichers. An enricher is a total
// function: it never errors and returns an empty string when it has nothing
// to contribute.
package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/pkg/logger"
	"github.com/meridian-ai/assistant-core/pkg/metrics"
)

// Enricher produces a short text block for a query, or an empty string.
type Enricher interface {
	Name() string
	// Label is the section heading under which the block is composed.
	Label() string
	// Enrich must not panic or error; failures yield an empty string.
	Enrich(ctx context.Context, query, assistantType string) string
}

// Composite consults its enrichers in registration order and concatenates
// non-empty blocks under labeled sections.
type Composite struct {
	enrichers []Enricher
	logger    *logger.Logger
}

// NewComposite creates a composite enricher.
func NewComposite(log *logger.Logger, enrichers ...Enricher) *Composite {
	return &Composite{enrichers: enrichers, logger: log}
}

// Register appends an enricher.
func (c *Composite) Register(e Enricher) {
	c.enrichers = append(c.enrichers, e)
}

// Enrich builds the combined context block. A panicking enricher is treated
// as having returned nothing.
func (c *Composite) Enrich(ctx context.Context, query, assistantType string) string {
	var sections []string
	for _, e := range c.enrichers {
		block := c.safeEnrich(ctx, e, query, assistantType)
		if block == "" {
			metrics.EnricherCalls.WithLabelValues(e.Name(), "empty").Inc()
			continue
		}
		metrics.EnricherCalls.WithLabelValues(e.Name(), "ok").Inc()
		sections = append(sections, e.Label()+" "+strings.TrimSpace(block))
	}
	return strings.Join(sections, "\n\n")
}

func (c *Composite) safeEnrich(ctx context.Context, e Enricher, query, assistantType string) (block string) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Warn("enricher panicked",
				zap.String("enricher", e.Name()),
				zap.Any("panic", rec),
			)
			block = ""
		}
	}()
	return e.Enrich(ctx, query, assistantType)
}
