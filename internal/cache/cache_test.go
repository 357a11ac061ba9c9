package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ai/assistant-core/pkg/logger"
)

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("What is Go?", "m1", "u1")
	b := Key("  what is go?  ", "m1", "u1")
	assert.Equal(t, a, b, "key normalizes case and whitespace")

	assert.NotEqual(t, a, Key("What is Go?", "m2", "u1"))
	assert.NotEqual(t, a, Key("What is Go?", "m1", "u2"))
	assert.NotEqual(t, a, Key("What is Rust?", "m1", "u1"))
}

func TestKey_AnonymousUsersShareEntries(t *testing.T) {
	assert.Equal(t, Key("hello", "m1", ""), Key("hello", "m1", ""))
	assert.NotEqual(t, Key("hello", "m1", ""), Key("hello", "m1", "u1"))
}

func TestIsTimeSensitive(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"What time is it?", true},
		{"what is the date", true},
		{"news today", true},
		{"where is the plane now?", true},
		{"current bitcoin price", true},
		{"TODAY!", true},
		{"tell me about timezones", false},
		{"the dates of the roman empire", false},
		{"currency exchange basics", false},
		{"what is Go", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTimeSensitive(tt.query))
		})
	}
}

func TestCache_SetGetLocal(t *testing.T) {
	c := New(nil, time.Minute, logger.NewNop())
	key := Key("what is go", "m1", "u1")

	_, hit := c.Get(context.Background(), key)
	assert.False(t, hit)

	c.Set(context.Background(), key, "what is go", "a language")

	got, hit := c.Get(context.Background(), key)
	require.True(t, hit)
	assert.Equal(t, "a language", got)
}

func TestCache_TimeSensitiveNeverCached(t *testing.T) {
	shared := NewMemoryTier()
	c := New(shared, time.Minute, logger.NewNop())
	key := Key("what time is it", "m1", "u1")

	c.Set(context.Background(), key, "what time is it", "3pm")

	_, hit := c.Get(context.Background(), key)
	assert.False(t, hit)

	_, found, err := shared.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, found, "shared tier must not hold time-sensitive entries")
}

func TestCache_LocalExpiry(t *testing.T) {
	c := New(nil, 10*time.Millisecond, logger.NewNop())
	key := Key("q", "m1", "u1")

	c.Set(context.Background(), key, "q", "v")
	time.Sleep(25 * time.Millisecond)

	_, hit := c.Get(context.Background(), key)
	assert.False(t, hit)
}

func TestCache_SharedTierPromotion(t *testing.T) {
	shared := NewMemoryTier()
	key := Key("q", "m1", "u1")
	require.NoError(t, shared.Set(context.Background(), key, "from shared", time.Minute))

	c := New(shared, time.Minute, logger.NewNop())

	got, hit := c.Get(context.Background(), key)
	require.True(t, hit)
	assert.Equal(t, "from shared", got)

	// Second probe hits the promoted local entry even if the shared tier
	// goes away.
	c.shared = nil
	got, hit = c.Get(context.Background(), key)
	require.True(t, hit)
	assert.Equal(t, "from shared", got)
}

type failingTier struct{}

func (failingTier) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (failingTier) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("backend down")
}

func TestCache_SharedTierFailureIsMiss(t *testing.T) {
	c := New(failingTier{}, time.Minute, logger.NewNop())
	key := Key("q", "m1", "u1")

	_, hit := c.Get(context.Background(), key)
	assert.False(t, hit)

	// Writes still land in the local tier.
	c.Set(context.Background(), key, "q", "v")
	got, hit := c.Get(context.Background(), key)
	require.True(t, hit)
	assert.Equal(t, "v", got)
}
