package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(perMinute, perHour, perDay int) (*RateLimiter, *clock) {
	c := &clock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, perHour, perDay, true)
	rl.now = c.now
	return rl, c
}

func TestAllowRequestMinuteWindow(t *testing.T) {
	rl, c := newTestLimiter(2, 0, 0)

	assert.True(t, rl.AllowRequest("a"))
	assert.True(t, rl.AllowRequest("a"))
	assert.False(t, rl.AllowRequest("a"))
	// other clients are independent
	assert.True(t, rl.AllowRequest("b"))

	c.t = c.t.Add(61 * time.Second)
	assert.True(t, rl.AllowRequest("a"))
}

func TestAllowRequestHourWindow(t *testing.T) {
	rl, c := newTestLimiter(0, 3, 0)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.AllowRequest("a"))
		c.t = c.t.Add(2 * time.Minute)
	}
	assert.False(t, rl.AllowRequest("a"))

	c.t = c.t.Add(time.Hour)
	assert.True(t, rl.AllowRequest("a"))
}

func TestDisabledLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.AllowRequest("a"))
	}
	assert.False(t, rl.GetStats("a").Enabled)
}

func TestGetStats(t *testing.T) {
	rl, _ := newTestLimiter(5, 0, 100)
	rl.AllowRequest("a")
	rl.AllowRequest("a")

	s := rl.GetStats("a")
	assert.True(t, s.Enabled)
	assert.Equal(t, 2, s.RequestsLastMinute)
	assert.Equal(t, 3, s.RemainingThisMinute)
	assert.Equal(t, -1, s.RemainingThisHour)
	assert.Equal(t, 98, s.RemainingThisDay)
}

func TestPruneAndReset(t *testing.T) {
	rl, c := newTestLimiter(5, 0, 0)
	rl.AllowRequest("a")
	c.t = c.t.Add(23 * time.Hour)
	rl.AllowRequest("b")
	c.t = c.t.Add(2 * time.Hour)

	assert.Equal(t, 1, rl.Prune())
	assert.Len(t, rl.clients, 1)

	rl.Reset()
	assert.Empty(t, rl.clients)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(1, 0, 0)
	rejected := 0

	r := gin.New()
	r.GET("/x", rl.Middleware(func() { rejected++ }), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
	assert.Equal(t, 1, rejected)
}
