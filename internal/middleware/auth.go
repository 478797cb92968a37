package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/permission"
)

const (
	SessionCookieName = "sessionid"
	CSRFCookieName    = "csrftoken"
	CSRFHeaderName    = "X-CSRFToken"

	tokenKeyword = "token"
)

type authenticator interface {
	AuthenticateToken(ctx context.Context, key string) (*model.Identity, error)
	AuthenticateSession(ctx context.Context, raw string) (*model.Identity, error)
}

type contextKey string

const identityContextKey contextKey = "identity"

type AuthMiddleware struct {
	auth authenticator
}

func NewAuthMiddleware(auth authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate attaches the caller's identity to the request context. It
// never rejects anonymous requests; a malformed or unknown token is rejected
// with 401. Authorization schemes other than Token are ignored.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.identify(w, r)
		if !ok {
			return
		}

		if identity == nil {
			next.ServeHTTP(w, r)
			return
		}

		if identity.Method == model.AuthMethodSession && !permission.IsSafeMethod(r.Method) && !validCSRF(r) {
			writeError(w, http.StatusForbidden, "CSRF_FAILED", "CSRF Failed: CSRF token missing or incorrect.")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// identify resolves the identity for r. ok is false when a response has
// already been written.
func (m *AuthMiddleware) identify(w http.ResponseWriter, r *http.Request) (*model.Identity, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) > 0 && strings.EqualFold(parts[0], tokenKeyword) {
		switch len(parts) {
		case 1:
			writeUnauthorized(w, "Invalid token header. No credentials provided.")
			return nil, false
		case 2:
			return m.identifyToken(w, r, parts[1])
		default:
			writeUnauthorized(w, "Invalid token header. Token string should not contain spaces.")
			return nil, false
		}
	}

	if len(parts) == 0 && isWebSocketUpgrade(r) {
		if key := strings.TrimSpace(r.URL.Query().Get("token")); key != "" {
			return m.identifyToken(w, r, key)
		}
	}

	if len(parts) > 0 {
		return nil, true
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, true
	}

	identity, err := m.auth.AuthenticateSession(r.Context(), cookie.Value)
	if err != nil {
		slog.Debug("ignoring invalid session", "error", err)
		return nil, true
	}
	return identity, true
}

func (m *AuthMiddleware) identifyToken(w http.ResponseWriter, r *http.Request, key string) (*model.Identity, bool) {
	identity, err := m.auth.AuthenticateToken(r.Context(), key)
	switch {
	case err == nil:
		return identity, true
	case errors.Is(err, model.ErrTokenNotFound):
		writeUnauthorized(w, "Invalid token.")
	case errors.Is(err, model.ErrUserInactive):
		writeUnauthorized(w, "User inactive or deleted.")
	default:
		slog.Error("token authentication failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
	}
	return nil, false
}

// Require rejects the request before it reaches the handler unless every
// policy allows it.
func (m *AuthMiddleware) Require(policies ...permission.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())

			err := permission.Evaluate(identity, r.Method, policies...)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, model.ErrNotAuthenticated):
				writeUnauthorized(w, "Authentication credentials were not provided.")
			default:
				writeError(w, http.StatusForbidden, "PERMISSION_DENIED", "You do not have permission to perform this action.")
			}
		})
	}
}

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	return identity, ok && identity != nil
}

func validCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	header := r.Header.Get(CSRFHeaderName)
	return subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) == 1
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
