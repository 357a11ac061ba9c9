// Package profile persists user profiles and mutates them by extraction from
// user messages.
package profile

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-ai/assistant-core/internal/model"
	"github.com/meridian-ai/assistant-core/pkg/logger"
)

// Store is the profile persistence backend.
type Store interface {
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Put(ctx context.Context, profile *model.UserProfile) error
}

// Extraction regexes. Each captures the fact in group 1.
var (
	nameRe       = regexp.MustCompile(`(?:my name is|I am|I'm|call me) ([A-Z][a-z]+(?: [A-Z][a-z]+)*)`)
	locationRe   = regexp.MustCompile(`(?:I live in|I'm from|I am from|I'm in) ([A-Za-z\s]+(?:,\s*[A-Za-z\s]+)?)`)
	professionRe = regexp.MustCompile(`(?:I am a|I'm a|I work as a) ([A-Za-z\s]+)`)
	preferenceRe = regexp.MustCompile(`(?:I prefer|I like) ([A-Za-z\s]+)`)
)

// beginnerMarkers and advancedMarkers drive expertise analysis.
var (
	beginnerMarkers = []string{
		"explain like", "simple terms", "what is", "what does", "i'm new",
		"beginner", "don't understand", "eli5",
	}
	advancedMarkers = []string{
		"architecture", "implementation", "trade-off", "tradeoff", "in depth",
		"technical details", "internals", "under the hood", "edge case",
	}
)

// Manager loads, mutates and saves profiles.
type Manager struct {
	store  Store
	logger *logger.Logger
}

// NewManager creates a profile manager.
func NewManager(store Store, log *logger.Logger) *Manager {
	return &Manager{store: store, logger: log}
}

// Get loads the profile for a user, creating a default one when absent.
func (m *Manager) Get(ctx context.Context, userID string) *model.UserProfile {
	p, err := m.store.Get(ctx, userID)
	if err != nil {
		m.logger.Warn("profile load failed", zap.String("user_id", userID), zap.Error(err))
	}
	if p == nil {
		p = model.NewUserProfile(userID)
	}
	return p
}

// UpdateFromMessage extracts personal info from a user message, advances the
// expertise analysis and persists the result. Storage failures are logged and
// swallowed; the returned profile is always usable.
func (m *Manager) UpdateFromMessage(ctx context.Context, userID, text string) *model.UserProfile {
	p := m.Get(ctx, userID)

	Extract(text, p)
	p.InteractionCount++
	p.ExpertiseLevel = analyzeExpertise(text, p)
	p.UpdatedAt = time.Now()

	if err := m.store.Put(ctx, p); err != nil {
		m.logger.Warn("profile save failed", zap.String("user_id", userID), zap.Error(err))
	}

	return p
}

// Extract applies the extraction regexes to text and writes any captured
// facts into the profile.
func Extract(text string, p *model.UserProfile) {
	if match := nameRe.FindStringSubmatch(text); match != nil {
		p.PersonalInfo.Name = strings.TrimSpace(match[1])
	}
	if match := locationRe.FindStringSubmatch(text); match != nil {
		p.PersonalInfo.Location = strings.TrimSpace(match[1])
	}
	if match := professionRe.FindStringSubmatch(text); match != nil {
		p.PersonalInfo.Profession = strings.TrimSpace(match[1])
	}
	if match := preferenceRe.FindStringSubmatch(text); match != nil {
		p.PersonalInfo.Preference = strings.TrimSpace(match[1])
	}
}

// analyzeExpertise nudges the expertise level based on wording. Explicit
// beginner or advanced markers win over the current level; otherwise heavy
// users drift toward advanced.
func analyzeExpertise(text string, p *model.UserProfile) model.ExpertiseLevel {
	lower := strings.ToLower(text)
	for _, marker := range beginnerMarkers {
		if strings.Contains(lower, marker) {
			return model.ExpertiseBeginner
		}
	}
	for _, marker := range advancedMarkers {
		if strings.Contains(lower, marker) {
			return model.ExpertiseAdvanced
		}
	}
	if p.InteractionCount >= 50 && p.ExpertiseLevel == model.ExpertiseIntermediate {
		return model.ExpertiseAdvanced
	}
	return p.ExpertiseLevel
}
