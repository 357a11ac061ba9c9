package timectx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-ai/assistant-core/internal/model"
)

func fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestDatetimeContext_Format(t *testing.T) {
	p := NewWithClock(fixed(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, "Friday, March 15, 2024 at 10:00 AM UTC", p.DatetimeContext("UTC"))
}

func TestDatetimeContext_TwelveHourEdges(t *testing.T) {
	tests := []struct {
		name string
		hour int
		min  int
		want string
	}{
		{"midnight", 0, 5, "12:05 AM"},
		{"noon", 12, 0, "12:00 PM"},
		{"afternoon", 15, 30, "3:30 PM"},
		{"single digit minute", 9, 7, "9:07 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWithClock(fixed(time.Date(2024, time.March, 15, tt.hour, tt.min, 0, 0, time.UTC)))
			assert.Contains(t, p.DatetimeContext("UTC"), tt.want)
		})
	}
}

func TestDatetimeContext_NonUTCZoneUsesAbbreviation(t *testing.T) {
	p := NewWithClock(fixed(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)))

	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skip("tzdata unavailable")
	}
	assert.Equal(t, "Friday, March 15, 2024 at 6:00 AM EDT", p.DatetimeContext("America/New_York"))
}

func TestDatetimeContext_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	p := NewWithClock(fixed(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, p.DatetimeContext("UTC"), p.DatetimeContext("Not/AZone"))
	assert.Equal(t, p.DatetimeContext("UTC"), p.DatetimeContext(""))
}

func TestUserContext_EmptyProfile(t *testing.T) {
	p := New()

	assert.Empty(t, p.UserContext(nil))
	assert.Empty(t, p.UserContext(model.NewUserProfile("u1")))
}

func TestUserContext_AssemblesKnownFacts(t *testing.T) {
	prof := model.NewUserProfile("u1")
	prof.PersonalInfo.Name = "Alice"
	prof.PersonalInfo.Location = "Austin, Texas"
	prof.PersonalInfo.Profession = "pilot"
	prof.ExpertiseLevel = model.ExpertiseAdvanced

	got := New().UserContext(prof)

	assert.Contains(t, got, "USER CONTEXT:")
	assert.Contains(t, got, "The user's name is Alice.")
	assert.Contains(t, got, "They live in Austin, Texas.")
	assert.Contains(t, got, "They work as a pilot.")
	assert.Contains(t, got, "Their expertise level is advanced.")
}

func TestUserContext_IntermediateLevelIsOmitted(t *testing.T) {
	prof := model.NewUserProfile("u1")
	prof.PersonalInfo.Name = "Alice"

	got := New().UserContext(prof)

	assert.NotContains(t, got, "expertise level")
}
