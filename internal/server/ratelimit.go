package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/config"
)

// RateLimiter enforces per-client request windows and daily quotas.
// Windows are fixed: a client's minute window opens with its first request
// of that window and closes a minute later.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int
	maxRequestsPerDay int
	maxDataPerDay     int64 // bytes

	clients map[string]*ClientUsage
	now     func() time.Time
}

// ClientUsage tracks usage for one client address.
type ClientUsage struct {
	minuteStart      time.Time
	hourStart        time.Time
	dayStart         time.Time
	requestsInMinute int
	requestsInHour   int
	requestsToday    int
	dataToday        int64
	lastRequest      time.Time
}

// NewRateLimiter creates a rate limiter. Zero disables a limit.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*ClientUsage),
		now:               time.Now,
	}
}

// NewRateLimiterFromConfig returns nil when rate limiting is disabled.
func NewRateLimiterFromConfig(c config.RateLimitConfig) *RateLimiter {
	if !c.Enabled {
		return nil
	}
	return NewRateLimiter(c.RequestsPerMinute, c.RequestsPerHour, c.MaxRequestsPerDay, c.MaxDataPerDayMB*1024*1024)
}

// Allow records a request of dataSize bytes from clientID, or returns a
// *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) Allow(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &ClientUsage{minuteStart: now, hourStart: now, dayStart: now}
		rl.clients[clientID] = usage
	}
	usage.roll(now)

	if rl.requestsPerMinute > 0 && usage.requestsInMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: usage.minuteStart.Add(time.Minute).Sub(now),
		}
	}
	if rl.requestsPerHour > 0 && usage.requestsInHour >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: usage.hourStart.Add(time.Hour).Sub(now),
		}
	}

	resets := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	if rl.maxRequestsPerDay > 0 && usage.requestsToday >= rl.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(rl.maxRequestsPerDay),
			Used:   int64(usage.requestsToday),
			Resets: resets,
		}
	}
	if rl.maxDataPerDay > 0 && usage.dataToday+dataSize > rl.maxDataPerDay {
		return &QuotaExceededError{
			Type:   "data",
			Limit:  rl.maxDataPerDay,
			Used:   usage.dataToday,
			Resets: resets,
		}
	}

	usage.requestsInMinute++
	usage.requestsInHour++
	usage.requestsToday++
	usage.dataToday += dataSize
	usage.lastRequest = now
	return nil
}

// roll opens new windows whose predecessors have expired.
func (u *ClientUsage) roll(now time.Time) {
	if now.Sub(u.minuteStart) >= time.Minute {
		u.minuteStart = now
		u.requestsInMinute = 0
	}
	if now.Sub(u.hourStart) >= time.Hour {
		u.hourStart = now
		u.requestsInHour = 0
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := u.dayStart.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		u.dayStart = now
		u.requestsToday = 0
		u.dataToday = 0
	}
}

// Usage returns a copy of the client's counters.
func (rl *RateLimiter) Usage(clientID string) ClientUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if u, ok := rl.clients[clientID]; ok {
		return *u
	}
	return ClientUsage{}
}

// RequestsToday reports the accepted requests in the current day.
func (u ClientUsage) RequestsToday() int { return u.requestsToday }

// DataToday reports the accepted upload bytes in the current day.
func (u ClientUsage) DataToday() int64 { return u.dataToday }

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string // "minute" or "hour"
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a daily quota violation.
type QuotaExceededError struct {
	Type   string // "requests" or "data"
	Limit  int64
	Used   int64
	Resets time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
