package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"mining_webapp/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(l ratelimit.Limiter, now func() time.Time) *gin.Engine {
	r := gin.New()
	r.GET("/test", RateLimit("test", l, now), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doGet(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := ratelimit.NewFixedWindow(ratelimit.NewMemoryCounterStore(), 3, time.Hour)
	r := newLimitedRouter(l, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doGet(r, "10.0.0.1").Code)
	}

	w := doGet(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded","retry_after":3600}`, w.Body.String())

	assert.Equal(t, http.StatusOK, doGet(r, "10.0.0.2").Code, "limits are per IP")
}

func TestRateLimit_BanGuard(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	burst := ratelimit.NewFixedWindow(ratelimit.NewMemoryCounterStore(), 2, time.Minute)
	guard := ratelimit.NewBanGuard(ratelimit.NewMemoryBanStore(), burst, 5*time.Minute)
	r := newLimitedRouter(guard, func() time.Time { return now })

	assert.Equal(t, http.StatusOK, doGet(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "10.0.0.1").Code)

	w := doGet(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "300", w.Header().Get("Retry-After"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "10.0.0.1").Code, "still banned after the burst window")
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, time.Time) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, errors.New("store down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := newLimitedRouter(brokenLimiter{}, nil)
	assert.Equal(t, http.StatusOK, doGet(r, "10.0.0.1").Code)
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRateLimit_RedisIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	client, err := ratelimit.NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NoError(t, err)
	defer client.Close()

	l := ratelimit.NewRedisWindow(client, "mw-test-"+uuid.NewString(), 2, 2*time.Second)
	srv := httptest.NewServer(newLimitedRouter(l, nil))
	defer srv.Close()

	for i := 0; i < 2; i++ {
		res, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	}

	res, err := http.Get(srv.URL + "/test")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}
