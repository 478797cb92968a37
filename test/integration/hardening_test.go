//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersOnResponses(t *testing.T) {
	server := newTestServer(t, testConfig(t))

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/v1/books/", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAuthRateLimitReturns429(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthRateLimitRPM = 1
	server := newTestServer(t, cfg)

	payload := map[string]string{"username": adminUsername, "password": adminPassword}

	first, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login/", payload, "")
	require.Equal(t, http.StatusOK, first.StatusCode)

	second, env := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login/", payload, "")
	require.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	require.Equal(t, "RATE_LIMITED", env.Error.Code)
	require.Equal(t, "60", second.Header.Get("Retry-After"))
}
