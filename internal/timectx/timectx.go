// Package timectx formats the current time in the user's timezone and
// assembles the personal-context string injected into prompts.
package timectx

import (
	"fmt"
	"strings"
	"time"

	"github.com/meridian-ai/assistant-core/internal/model"
)

// Clock supplies the current time; injectable for deterministic tests.
type Clock func() time.Time

// Provider builds datetime and user context strings.
type Provider struct {
	now Clock
}

// New creates a provider using the real clock.
func New() *Provider {
	return &Provider{now: time.Now}
}

// NewWithClock creates a provider with a fixed clock.
func NewWithClock(clock Clock) *Provider {
	return &Provider{now: clock}
}

// DatetimeContext formats now() in the given timezone, e.g.
// "Friday, March 15, 2024 at 10:00 AM UTC". An unknown timezone falls back
// to UTC.
func (p *Provider) DatetimeContext(timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	t := p.now().In(loc)

	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "AM"
	if t.Hour() >= 12 {
		meridiem = "PM"
	}

	return fmt.Sprintf("%s, %s %d, %d at %d:%02d %s %s",
		t.Weekday(), t.Month(), t.Day(), t.Year(),
		hour, t.Minute(), meridiem, t.Format("MST"),
	)
}

// UserContext assembles the personal-context string from a profile. Returns
// an empty string when nothing is known about the user.
func (p *Provider) UserContext(profile *model.UserProfile) string {
	if profile == nil {
		return ""
	}

	var parts []string
	if profile.PersonalInfo.Name != "" {
		parts = append(parts, "The user's name is "+profile.PersonalInfo.Name+".")
	}
	if profile.PersonalInfo.Location != "" {
		parts = append(parts, "They live in "+profile.PersonalInfo.Location+".")
	}
	if profile.PersonalInfo.Profession != "" {
		parts = append(parts, "They work as a "+strings.TrimSpace(profile.PersonalInfo.Profession)+".")
	}
	if profile.PersonalInfo.Preference != "" {
		parts = append(parts, "They prefer "+strings.TrimSpace(profile.PersonalInfo.Preference)+".")
	}
	if profile.ExpertiseLevel != "" && profile.ExpertiseLevel != model.ExpertiseIntermediate {
		parts = append(parts, "Their expertise level is "+string(profile.ExpertiseLevel)+".")
	}
	if len(profile.PreferredTopics) > 0 {
		parts = append(parts, "Topics they care about: "+strings.Join(profile.PreferredTopics, ", ")+".")
	}

	if len(parts) == 0 {
		return ""
	}
	return "USER CONTEXT: " + strings.Join(parts, " ")
}
