package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := New(2)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, 30*time.Second, wait, float64(time.Millisecond))

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "keys have separate buckets")

	now = now.Add(31 * time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(0)
	for range 1000 {
		ok, _ := l.Allow("10.0.0.1")
		assert.True(t, ok)
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1)
	handler := l.Middleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r.RemoteAddr = "192.0.2.1"
	assert.Equal(t, "192.0.2.1", ClientIP(r))
}
