package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bookshelf-api/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, method string, path string, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":4242"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_GeneralDisabled(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	for i := 0; i < 20; i++ {
		rec := hit(handler, http.MethodGet, "/api/v1/books", "10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimit_AuthBudget(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 1)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	mw.now = func() time.Time { return base }
	handler := mw.Handler(okHandler())

	first := hit(handler, http.MethodPost, "/api/v1/auth/login/", "10.0.0.2")
	assert.Equal(t, http.StatusOK, first.Code)

	second := hit(handler, http.MethodPost, "/api/v1/auth/login/", "10.0.0.2")
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)

	other := hit(handler, http.MethodPost, "/api/v1/auth/login/", "10.0.0.3")
	assert.Equal(t, http.StatusOK, other.Code)

	books := hit(handler, http.MethodGet, "/api/v1/books/", "10.0.0.2")
	assert.Equal(t, http.StatusOK, books.Code)

	mw.now = func() time.Time { return base.Add(time.Minute) }
	recovered := hit(handler, http.MethodPost, "/api/v1/auth/login/", "10.0.0.2")
	assert.Equal(t, http.StatusOK, recovered.Code)
}

func TestRateLimit_SkipsHealthAndMedia(t *testing.T) {
	handler := NewRateLimitMiddleware(1, 1).Handler(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "/health", "10.0.0.4").Code)
		assert.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "/media/profile_photos/a.jpg", "10.0.0.4").Code)
	}

	assert.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "/api/v1/books/", "10.0.0.4").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, http.MethodGet, "/api/v1/books/", "10.0.0.4").Code)
}

func TestRateLimit_Defaults(t *testing.T) {
	mw := NewRateLimitMiddleware(-1, 0)
	assert.Equal(t, -1, mw.generalRPM)
	assert.Equal(t, 10, mw.authRPM)
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.1")
	assert.Equal(t, "203.0.113.1", ClientIP(req))
}
