//go:build integration

package integration

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bookshelf-api/internal/middleware"
	"go-bookshelf-api/internal/model"
)

func TestRegisterLoginLogout(t *testing.T) {
	server := newTestServer(t, testConfig(t))

	token := register(t, server, "reader", "secret-pass")

	resp, env := doJSON(t, http.MethodGet, server.URL+"/api/v1/profile/", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile model.UserResponse
	decodeData(t, env, &profile)
	assert.Equal(t, "reader", profile.Username)
	assert.Equal(t, []string{model.GroupViewers}, profile.Groups)

	assert.Equal(t, token, login(t, server, "reader", "secret-pass"), "login reuses the existing token")

	resp, env = doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login/", map[string]string{
		"username": "reader",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/logout/", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, http.MethodGet, server.URL+"/api/v1/profile/", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token.", env.Error.Message)
}

func TestRegisterValidationCreatesNothing(t *testing.T) {
	server := newTestServer(t, testConfig(t))

	resp, env := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/register/", map[string]string{
		"username":         "bad name!",
		"email":            "not-an-email",
		"password":         "one",
		"password_confirm": "two",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Error.Fields, "username")
	assert.Contains(t, env.Error.Fields, "email")
	assert.Equal(t, "Passwords do not match.", env.Error.Fields["password_confirm"])

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login/", map[string]string{
		"username": "bad name!",
		"password": "one",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangePasswordRotatesToken(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	token := register(t, server, "writer", "first-pass")

	resp, env := doJSON(t, http.MethodPost, server.URL+"/api/v1/profile/password/", map[string]string{
		"old_password":         "first-pass",
		"new_password":         "second-pass",
		"new_password_confirm": "second-pass",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated model.AuthResponse
	decodeData(t, env, &rotated)
	assert.NotEqual(t, token, rotated.Token)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/profile/", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	login(t, server, "writer", "second-pass")
}

func TestSessionLoginRequiresCSRFForWrites(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	register(t, server, "session-user", "session-pass")

	resp, env := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/session/login/", map[string]string{
		"username": "session-user",
		"password": "session-pass",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session model.SessionResponse
	decodeData(t, env, &session)
	require.Len(t, session.CSRFToken, 64)

	var sessionCookie, csrfCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case middleware.SessionCookieName:
			sessionCookie = cookie
		case middleware.CSRFCookieName:
			csrfCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	require.NotNil(t, csrfCookie)
	assert.True(t, sessionCookie.HttpOnly)

	get, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/profile/", nil)
	require.NoError(t, err)
	get.AddCookie(sessionCookie)
	resp, _ = doRequest(t, get)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload := []byte(`{"title":"Hello","content":"First post"}`)
	post, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/posts/", bytes.NewReader(payload))
	require.NoError(t, err)
	post.Header.Set("Content-Type", "application/json")
	post.AddCookie(sessionCookie)
	post.AddCookie(csrfCookie)
	resp, env = doRequest(t, post)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "CSRF_FAILED", env.Error.Code)

	post, err = http.NewRequest(http.MethodPost, server.URL+"/api/v1/posts/", bytes.NewReader(payload))
	require.NoError(t, err)
	post.Header.Set("Content-Type", "application/json")
	post.Header.Set(middleware.CSRFHeaderName, csrfCookie.Value)
	post.AddCookie(sessionCookie)
	post.AddCookie(csrfCookie)
	resp, _ = doRequest(t, post)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
