package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-bookshelf-api/internal/config"
	"go-bookshelf-api/internal/database"
	"go-bookshelf-api/internal/event"
	"go-bookshelf-api/internal/handler"
	"go-bookshelf-api/internal/middleware"
	"go-bookshelf-api/internal/repository"
	"go-bookshelf-api/internal/router"
	"go-bookshelf-api/internal/service"
	"go-bookshelf-api/internal/storage"
	"go-bookshelf-api/internal/websocket"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	store, err := storage.New(cfg.MediaRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	authorRepo := repository.NewAuthorRepository(pool)
	bookRepo := repository.NewBookRepository(pool)
	postRepo := repository.NewPostRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	likeRepo := repository.NewLikeRepository(pool)
	followRepo := repository.NewFollowRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	slog.Info("database ready")

	auditService := service.NewAuditService(auditRepo)
	authService, err := service.NewAuthService(userRepo, tokenRepo, groupRepo, auditService, service.AuthOptions{
		SessionSecret:     cfg.SessionSecret,
		SessionTTL:        cfg.SessionTTL,
		BcryptCost:        cfg.BcryptCost,
		PasswordMinLength: cfg.PasswordMinLength,
		DefaultGroup:      cfg.DefaultUserGroup,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure admin user: %w", err)
		}
	}

	bus := event.NewBus()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	hub := websocket.NewHub(bus, cfg.CORSOrigins)
	go hub.Run(hubCtx)

	notificationService := service.NewNotificationService(notificationRepo, bus)
	userService := service.NewUserService(userRepo, groupRepo, followRepo, notificationService, auditService)
	avatarService := service.NewAvatarService(userRepo, userService, store, cfg.MaxAvatarSize, cfg.AvatarSize)
	authorService := service.NewAuthorService(authorRepo, bookRepo, bus, auditService)
	bookService := service.NewBookService(bookRepo, authorRepo, bus, auditService)
	postService := service.NewPostService(postRepo, commentRepo, likeRepo, notificationService, bus)
	commentService := service.NewCommentService(commentRepo, postRepo, notificationService)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg.CookieSecure),
		Profile:      handler.NewProfileHandler(userService, avatarService, cfg.MaxAvatarSize),
		User:         handler.NewUserHandler(userService),
		Author:       handler.NewAuthorHandler(authorService),
		Book:         handler.NewBookHandler(bookService),
		Post:         handler.NewPostHandler(postService),
		Comment:      handler.NewCommentHandler(commentService),
		Notification: handler.NewNotificationHandler(notificationService, hub),
		Audit:        handler.NewAuditHandler(auditService),
		Media:        store,
	}, db.Health)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadTimeout:       cfg.ServerReadTimeout,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				hubCancel()
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	// Run cleanup functions
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
