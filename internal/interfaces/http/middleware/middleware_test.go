package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDHonorsCallerHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString("request_id")})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied-id", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, rec.Body.String(), "caller-supplied-id")
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

type stubLimiter struct {
	allow   bool
	lastKey string
}

func (s *stubLimiter) Allow(_ context.Context, key string) bool {
	s.lastKey = key
	return s.allow
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	r := gin.New()
	r.Use(RateLimit(true, limiter))
	r.POST("/answer", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/answer", nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "too_many_requests")
	assert.Contains(t, limiter.lastKey, ":/answer")
}

func TestRateLimitPassesUnderLimit(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	r := gin.New()
	r.Use(RateLimit(true, limiter))
	r.POST("/answer", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/answer", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabledIsPassthrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(false, nil))
	r.POST("/answer", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/answer", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("unexpected") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}
