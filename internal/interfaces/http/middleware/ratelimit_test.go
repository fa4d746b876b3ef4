package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, period time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, limit, period)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 2, time.Minute)

	ok, remaining, _ := rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining, _ = rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, resetAt := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), resetAt)

	// Keys are independent
	ok, _, _ = rl.Allow("b")
	assert.True(t, ok)

	*now = now.Add(time.Minute)
	ok, remaining, _ = rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)

	r := gin.New()
	r.Use(RateLimit(rl))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := func(tenant string) *httptest.ResponseRecorder {
		rq := httptest.NewRequest(http.MethodGet, "/test", nil)
		if tenant != "" {
			rq.Header.Set(TenantHeaderKey, tenant)
		}
		return serve(r, rq)
	}

	w := req("t1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = req("t1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")

	// Another tenant behind the same IP has its own budget
	assert.Equal(t, http.StatusOK, req("t2").Code)
}
