package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/permission"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) AuthenticateToken(ctx context.Context, key string) (*model.Identity, error) {
	args := m.Called(ctx, key)
	identity, _ := args.Get(0).(*model.Identity)
	return identity, args.Error(1)
}

func (m *mockAuthenticator) AuthenticateSession(ctx context.Context, raw string) (*model.Identity, error) {
	args := m.Called(ctx, raw)
	identity, _ := args.Get(0).(*model.Identity)
	return identity, args.Error(1)
}

func viewer(method model.AuthMethod) *model.Identity {
	return model.NewIdentity(model.User{ID: 7, Username: "reader", IsActive: true}, []string{model.GroupViewers}, []string{model.PermView}, method)
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			w.Header().Set("X-User", "anonymous")
		} else {
			w.Header().Set("X-User", identity.User.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.APIError {
	t.Helper()

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	return *body.Error
}

func TestAuthenticate_TokenHeader(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("AuthenticateToken", mock.Anything, "good").Return(viewer(model.AuthMethodToken), nil)
	auth.On("AuthenticateToken", mock.Anything, "unknown").Return(nil, model.ErrTokenNotFound)
	auth.On("AuthenticateToken", mock.Anything, "dormant").Return(nil, model.ErrUserInactive)

	handler := NewAuthMiddleware(auth).Authenticate(echoIdentity())

	cases := []struct {
		name    string
		header  string
		status  int
		user    string
		message string
	}{
		{name: "valid token", header: "Token good", status: http.StatusOK, user: "reader"},
		{name: "keyword is case-insensitive", header: "token good", status: http.StatusOK, user: "reader"},
		{name: "no header", header: "", status: http.StatusOK, user: "anonymous"},
		{name: "other scheme ignored", header: "Bearer abc", status: http.StatusOK, user: "anonymous"},
		{name: "missing key", header: "Token", status: http.StatusUnauthorized, message: "Invalid token header. No credentials provided."},
		{name: "key with spaces", header: "Token a b", status: http.StatusUnauthorized, message: "Invalid token header. Token string should not contain spaces."},
		{name: "unknown key", header: "Token unknown", status: http.StatusUnauthorized, message: "Invalid token."},
		{name: "inactive user", header: "Token dormant", status: http.StatusUnauthorized, message: "User inactive or deleted."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.user, rec.Header().Get("X-User"))
				return
			}
			assert.Equal(t, "Token", rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, tc.message, decodeError(t, rec).Message)
		})
	}
}

func TestAuthenticate_Session(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("AuthenticateSession", mock.Anything, "signed").Return(viewer(model.AuthMethodSession), nil)
	auth.On("AuthenticateSession", mock.Anything, "forged").Return(nil, model.ErrNotAuthenticated)

	handler := NewAuthMiddleware(auth).Authenticate(echoIdentity())

	newRequest := func(method string, session string, csrfCookie string, csrfHeader string) *http.Request {
		req := httptest.NewRequest(method, "/api/v1/books", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session})
		if csrfCookie != "" {
			req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: csrfCookie})
		}
		if csrfHeader != "" {
			req.Header.Set(CSRFHeaderName, csrfHeader)
		}
		return req
	}

	t.Run("safe method needs no csrf token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(http.MethodGet, "signed", "", ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "reader", rec.Header().Get("X-User"))
	})

	t.Run("unsafe method with matching csrf token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(http.MethodPost, "signed", "abc123", "abc123"))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unsafe method without csrf token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(http.MethodDelete, "signed", "abc123", ""))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "CSRF_FAILED", decodeError(t, rec).Code)
	})

	t.Run("mismatched csrf token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(http.MethodPut, "signed", "abc123", "zzz999"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid session is anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(http.MethodGet, "forged", "", ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Header().Get("X-User"))
	})
}

func TestAuthenticate_WebSocketQueryToken(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("AuthenticateToken", mock.Anything, "good").Return(viewer(model.AuthMethodToken), nil)

	handler := NewAuthMiddleware(auth).Authenticate(echoIdentity())

	upgrade := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/ws?token=good", nil)
	upgrade.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, upgrade)
	assert.Equal(t, "reader", rec.Header().Get("X-User"))

	plain := httptest.NewRequest(http.MethodGet, "/api/v1/books?token=good", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, plain)
	assert.Equal(t, "anonymous", rec.Header().Get("X-User"))
}

func TestRequire(t *testing.T) {
	auth := new(mockAuthenticator)
	mw := NewAuthMiddleware(auth)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	handler := mw.Require(permission.IsAuthenticated, permission.HasPermission(model.PermDelete))(next)

	t.Run("anonymous is 401", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/books/1", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Token", rec.Header().Get("WWW-Authenticate"))
		assert.False(t, called)
	})

	t.Run("missing permission is 403", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/1", nil)
		req = req.WithContext(WithIdentity(req.Context(), viewer(model.AuthMethodToken)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "PERMISSION_DENIED", decodeError(t, rec).Code)
		assert.False(t, called)
	})

	t.Run("superuser passes", func(t *testing.T) {
		called = false
		admin := model.NewIdentity(model.User{ID: 1, IsActive: true, IsSuperuser: true}, nil, nil, model.AuthMethodToken)
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/1", strings.NewReader(""))
		req = req.WithContext(WithIdentity(req.Context(), admin))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, called)
	})
}
