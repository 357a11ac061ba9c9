package model

import "time"

// ExpertiseLevel describes how much detail a user wants in responses.
type ExpertiseLevel string

const (
	ExpertiseBeginner     ExpertiseLevel = "beginner"
	ExpertiseIntermediate ExpertiseLevel = "intermediate"
	ExpertiseAdvanced     ExpertiseLevel = "advanced"
)

// PersonalInfo holds facts extracted from the user's own messages.
type PersonalInfo struct {
	Name       string `json:"name,omitempty"`
	Location   string `json:"location,omitempty"`
	Profession string `json:"profession,omitempty"`
	Preference string `json:"preference,omitempty"`
}

// UserProfile is the per-user record mutated by extraction on every message.
type UserProfile struct {
	UserID           string         `json:"user_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	PersonalInfo     PersonalInfo   `json:"personal_info"`
	ExpertiseLevel   ExpertiseLevel `json:"expertise_level"`
	InteractionCount int            `json:"interaction_count"`
	PreferredTopics  []string       `json:"preferred_topics,omitempty"`
	Timezone         string         `json:"timezone,omitempty"`
}

// NewUserProfile returns a fresh profile with defaults.
func NewUserProfile(userID string) *UserProfile {
	now := time.Now()
	return &UserProfile{
		UserID:         userID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpertiseLevel: ExpertiseIntermediate,
	}
}
