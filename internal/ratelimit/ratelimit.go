// Package ratelimit throttles the prediction API with sliding windows.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
)

// window counts the requests of one client inside a sliding period.
type window struct {
	period time.Duration
	limit  int
	hits   []time.Time
}

func (w *window) expire(now time.Time) {
	cutoff := now.Add(-w.period)
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	w.hits = w.hits[i:]
}

func (w *window) full() bool {
	return w.limit > 0 && len(w.hits) >= w.limit
}

func (w *window) remaining() int {
	if w.limit <= 0 {
		return -1
	}
	return max(0, w.limit-len(w.hits))
}

// RateLimiter tracks and enforces per-client request limits. A limit of
// zero disables that window.
type RateLimiter struct {
	perMinute int
	perHour   int
	perDay    int
	enabled   bool

	mu      sync.Mutex
	clients map[string][]*window
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		perMinute: requestsPerMinute,
		perHour:   requestsPerHour,
		perDay:    requestsPerDay,
		enabled:   enabled,
		clients:   make(map[string][]*window),
		now:       time.Now,
	}
}

// FromConfig creates a limiter from the rate limit settings.
func FromConfig(cfg config.RateLimitConfig) *RateLimiter {
	return NewRateLimiter(cfg.RequestsPerMinute, cfg.RequestsPerHour, cfg.RequestsPerDay, cfg.Enabled)
}

func (rl *RateLimiter) windows(client string) []*window {
	ws, ok := rl.clients[client]
	if !ok {
		ws = []*window{
			{period: time.Minute, limit: rl.perMinute},
			{period: time.Hour, limit: rl.perHour},
			{period: 24 * time.Hour, limit: rl.perDay},
		}
		rl.clients[client] = ws
	}
	return ws
}

// AllowRequest records a request from client and reports whether it is
// within every limit. Rejected requests are not recorded.
func (rl *RateLimiter) AllowRequest(client string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	ws := rl.windows(client)
	for _, w := range ws {
		w.expire(now)
		if w.full() {
			return false
		}
	}
	for _, w := range ws {
		w.hits = append(w.hits, now)
	}
	return true
}

// Stats contains the counters of one client. Remaining is -1 for a
// disabled window.
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// GetStats returns the counters of one client.
func (rl *RateLimiter) GetStats(client string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	ws := rl.windows(client)
	for _, w := range ws {
		w.expire(now)
	}
	minute, hour, day := ws[0], ws[1], ws[2]

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(minute.hits),
		RequestsLastHour:    len(hour.hits),
		RequestsLastDay:     len(day.hits),
		LimitPerMinute:      rl.perMinute,
		LimitPerHour:        rl.perHour,
		LimitPerDay:         rl.perDay,
		RemainingThisMinute: minute.remaining(),
		RemainingThisHour:   hour.remaining(),
		RemainingThisDay:    day.remaining(),
	}
}

// Prune forgets clients with no request in the last day.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for client, ws := range rl.clients {
		day := ws[2]
		day.expire(now)
		if len(day.hits) == 0 {
			delete(rl.clients, client)
			removed++
		}
	}
	return removed
}

// Reset clears all tracked requests (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clients = make(map[string][]*window)
}

// Middleware rejects requests over the limit with 429. onReject, if set,
// is called for every rejection.
func (rl *RateLimiter) Middleware(onReject func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if !rl.AllowRequest(client) {
			if onReject != nil {
				onReject()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   rl.GetStats(client),
			})
			return
		}
		c.Next()
	}
}
