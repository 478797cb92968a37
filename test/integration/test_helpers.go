//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-bookshelf-api/internal/config"
	"go-bookshelf-api/internal/database"
	"go-bookshelf-api/internal/event"
	"go-bookshelf-api/internal/handler"
	"go-bookshelf-api/internal/middleware"
	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/repository"
	"go-bookshelf-api/internal/router"
	"go-bookshelf-api/internal/service"
	"go-bookshelf-api/internal/storage"
	"go-bookshelf-api/internal/websocket"
)

const (
	adminUsername = "admin"
	adminPassword = "admin123"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		ServerPort:        "8080",
		RequestTimeout:    10 * time.Second,
		SessionSecret:     "integration-secret",
		SessionTTL:        time.Hour,
		CORSOrigins:       []string{"*"},
		RateLimitRPM:      1000,
		AuthRateLimitRPM:  1000,
		BcryptCost:        bcrypt.MinCost,
		PasswordMinLength: 1,
		DefaultUserGroup:  model.GroupViewers,
		MediaRoot:         t.TempDir(),
		MaxAvatarSize:     5 * 1024 * 1024,
		AvatarSize:        64,
	}
}

// openTestDB connects to TEST_DATABASE_URL and empties every table except the
// seeded groups and permissions.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE notifications, likes, comments, posts, follows, books, authors,
		audit_entries, auth_tokens, user_groups, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	db := openTestDB(t)
	pool := db.Pool

	store, err := storage.New(cfg.MediaRoot)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	postRepo := repository.NewPostRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	authorRepo := repository.NewAuthorRepository(pool)
	bookRepo := repository.NewBookRepository(pool)

	auditService := service.NewAuditService(repository.NewAuditRepository(pool))
	authService, err := service.NewAuthService(userRepo, repository.NewTokenRepository(pool), groupRepo, auditService, service.AuthOptions{
		SessionSecret:     cfg.SessionSecret,
		SessionTTL:        cfg.SessionTTL,
		BcryptCost:        cfg.BcryptCost,
		PasswordMinLength: cfg.PasswordMinLength,
		DefaultGroup:      cfg.DefaultUserGroup,
	})
	require.NoError(t, err)
	require.NoError(t, authService.EnsureAdmin(context.Background(), adminUsername, "admin@example.com", adminPassword))

	bus := event.NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(bus, cfg.CORSOrigins)
	go hub.Run(ctx)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(pool), bus)
	users := service.NewUserService(userRepo, groupRepo, repository.NewFollowRepository(pool), notifications, auditService)

	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:         handler.NewAuthHandler(authService, false),
		Profile:      handler.NewProfileHandler(users, service.NewAvatarService(userRepo, users, store, cfg.MaxAvatarSize, cfg.AvatarSize), cfg.MaxAvatarSize),
		User:         handler.NewUserHandler(users),
		Author:       handler.NewAuthorHandler(service.NewAuthorService(authorRepo, bookRepo, bus, auditService)),
		Book:         handler.NewBookHandler(service.NewBookService(bookRepo, authorRepo, bus, auditService)),
		Post:         handler.NewPostHandler(service.NewPostService(postRepo, commentRepo, repository.NewLikeRepository(pool), notifications, bus)),
		Comment:      handler.NewCommentHandler(service.NewCommentService(commentRepo, postRepo, notifications)),
		Notification: handler.NewNotificationHandler(notifications, hub),
		Audit:        handler.NewAuditHandler(auditService),
		Media:        store,
	}, db.Health))
	t.Cleanup(server.Close)

	return server
}

func doJSON(t *testing.T, method string, url string, payload any, token string) (*http.Response, envelope) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	return doRequest(t, req)
}

func doRequest(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed envelope
	if resp.StatusCode != http.StatusNoContent && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	}
	return resp, parsed
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func login(t *testing.T, server *httptest.Server, username string, password string) string {
	t.Helper()

	resp, env := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login/", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth model.AuthResponse
	decodeData(t, env, &auth)
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func register(t *testing.T, server *httptest.Server, username string, password string) string {
	t.Helper()

	resp, env := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/register/", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         password,
		"password_confirm": password,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var auth model.AuthResponse
	decodeData(t, env, &auth)
	require.NotEmpty(t, auth.Token)
	return auth.Token
}
