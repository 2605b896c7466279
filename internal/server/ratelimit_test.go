package server

import (
	"errors"
	"testing"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func limiterAt(rl *RateLimiter, start time.Time) *fakeClock {
	c := &fakeClock{t: start}
	rl.now = c.now
	return c
}

func TestNewRateLimiterFromConfig(t *testing.T) {
	assert.Nil(t, NewRateLimiterFromConfig(config.RateLimitConfig{RequestsPerMinute: 5}))

	rl := NewRateLimiterFromConfig(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 5, MaxDataPerDayMB: 2})
	require.NotNil(t, rl)
	assert.Equal(t, 5, rl.requestsPerMinute)
	assert.Equal(t, int64(2*1024*1024), rl.maxDataPerDay)
}

func TestRateLimiter_NoLimits(t *testing.T) {
	rl := NewRateLimiter(0, 0, 0, 0)
	require.NoError(t, rl.Allow("client", 100))

	usage := rl.Usage("client")
	assert.Equal(t, 1, usage.RequestsToday())
	assert.Equal(t, int64(100), usage.DataToday())
}

func TestRateLimiter_Windows(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *RateLimiter
		allowed    int
		wantType   string
		reopenNext time.Duration
	}{
		{name: "minute", limiter: NewRateLimiter(2, 0, 0, 0), allowed: 2, wantType: "minute", reopenNext: time.Minute},
		{name: "hour", limiter: NewRateLimiter(0, 3, 0, 0), allowed: 3, wantType: "hour", reopenNext: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := limiterAt(tt.limiter, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
			for range tt.allowed {
				require.NoError(t, tt.limiter.Allow("client", 0))
			}

			clock.advance(10 * time.Second)
			err := tt.limiter.Allow("client", 0)
			var rle *RateLimitError
			require.ErrorAs(t, err, &rle)
			assert.Equal(t, tt.wantType, rle.Type)
			assert.Equal(t, tt.allowed, rle.Limit)
			assert.Equal(t, tt.reopenNext-10*time.Second, rle.RetryAfter)

			clock.advance(tt.reopenNext)
			assert.NoError(t, tt.limiter.Allow("client", 0))
		})
	}
}

func TestRateLimiter_SteadyTrafficDoesNotExtendWindow(t *testing.T) {
	rl := NewRateLimiter(2, 0, 0, 0)
	clock := limiterAt(rl, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, rl.Allow("client", 0))
	clock.advance(30 * time.Second)
	require.NoError(t, rl.Allow("client", 0))
	clock.advance(20 * time.Second)
	require.Error(t, rl.Allow("client", 0))
	clock.advance(15 * time.Second)
	assert.NoError(t, rl.Allow("client", 0))
}

func TestRateLimiter_DailyQuotas(t *testing.T) {
	t.Run("requests", func(t *testing.T) {
		rl := NewRateLimiter(0, 0, 2, 0)
		clock := limiterAt(rl, time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC))
		require.NoError(t, rl.Allow("client", 0))
		require.NoError(t, rl.Allow("client", 0))

		err := rl.Allow("client", 0)
		var qe *QuotaExceededError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, "requests", qe.Type)
		assert.Equal(t, int64(2), qe.Used)
		assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), qe.Resets)

		clock.advance(3 * time.Hour)
		assert.NoError(t, rl.Allow("client", 0))
	})

	t.Run("data", func(t *testing.T) {
		rl := NewRateLimiter(0, 0, 0, 1000)
		require.NoError(t, rl.Allow("client", 500))
		require.NoError(t, rl.Allow("client", 400))

		err := rl.Allow("client", 200)
		var qe *QuotaExceededError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, "data", qe.Type)
		assert.Equal(t, int64(900), qe.Used)
		assert.Equal(t, int64(900), rl.Usage("client").DataToday(), "rejected requests are not counted")
	})
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 0, 0, 0)
	require.NoError(t, rl.Allow("a", 0))
	require.Error(t, rl.Allow("a", 0))
	assert.NoError(t, rl.Allow("b", 0))
	assert.Equal(t, ClientUsage{}, rl.Usage("unknown"))
}

func TestRateLimitErrors(t *testing.T) {
	err := error(&RateLimitError{Type: "minute", Limit: 10, RetryAfter: 5 * time.Minute})
	assert.Equal(t, "rate limit exceeded for minute (limit: 10, retry after: 5m0s)", err.Error())

	qe := &QuotaExceededError{Type: "data", Limit: 1000, Used: 950, Resets: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "quota exceeded for data (used: 950, limit: 1000, resets: 2024-01-02T00:00:00Z)", qe.Error())
	assert.False(t, errors.As(err, &qe))
}

func BenchmarkRateLimiter_Allow(b *testing.B) {
	rl := NewRateLimiter(0, 0, 0, 0)
	for range b.N {
		_ = rl.Allow("benchuser", 100)
	}
}
