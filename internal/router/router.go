package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"go-bookshelf-api/internal/config"
	"go-bookshelf-api/internal/handler"
	"go-bookshelf-api/internal/middleware"
	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/permission"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	User         *handler.UserHandler
	Author       *handler.AuthorHandler
	Book         *handler.BookHandler
	Post         *handler.PostHandler
	Comment      *handler.CommentHandler
	Notification *handler.NotificationHandler
	Audit        *handler.AuditHandler
	Media        http.Handler
}

// HealthCheck reports whether the service's dependencies are reachable.
type HealthCheck func(ctx context.Context) error

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers, health HealthCheck) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)
	r.Use(chimw.StripSlashes)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.Media != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", h.Media))
	}

	requireAuth := authMiddleware.Require(permission.IsAuthenticated)
	requireAdmin := authMiddleware.Require(permission.IsAdmin)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware.Authenticate)

		// The socket outlives any request timeout.
		api.With(requireAuth).Get("/notifications/ws", h.Notification.Stream)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/register", h.Auth.Register)
				auth.Post("/login", h.Auth.Login)
				auth.With(requireAuth).Post("/logout", h.Auth.Logout)
				auth.Post("/session/login", h.Auth.SessionLogin)
				auth.Post("/session/logout", h.Auth.SessionLogout)
			})

			api.Route("/profile", func(profile chi.Router) {
				profile.Use(requireAuth)
				profile.Get("/", h.Profile.Get)
				profile.Put("/", h.Profile.Update)
				profile.Patch("/", h.Profile.Update)
				profile.Post("/password", h.Auth.ChangePassword)
				profile.Put("/picture", h.Profile.UploadPicture)
				profile.Delete("/picture", h.Profile.DeletePicture)
			})

			api.Route("/users", func(users chi.Router) {
				users.With(requireAdmin).Get("/", h.User.List)
				users.With(requireAuth).Get("/{id}", h.User.Get)
				users.With(requireAdmin).Put("/{id}/groups", h.User.SetGroups)
				users.With(requireAuth).Post("/{id}/follow", h.User.Follow)
				users.With(requireAuth).Post("/{id}/unfollow", h.User.Unfollow)
			})
			api.With(requireAdmin).Get("/groups", h.User.ListGroups)

			api.Route("/authors", func(authors chi.Router) {
				authors.Get("/", h.Author.List)
				authors.Get("/{id}", h.Author.Get)
				authors.With(requireAuth).Post("/", h.Author.Create)
				authors.With(requireAuth).Put("/{id}", h.Author.Update)
				authors.With(requireAuth).Patch("/{id}", h.Author.Update)
				authors.With(authMiddleware.Require(permission.IsAdminOrReadOnly)).Delete("/{id}", h.Author.Delete)
			})

			api.Route("/books", func(books chi.Router) {
				books.Get("/", h.Book.List)
				books.With(requireAuth).Post("/", h.Book.Create)
				books.With(authMiddleware.Require(permission.HasPermission(model.PermView))).Get("/{id}", h.Book.Get)
				books.With(authMiddleware.Require(permission.HasPermission(model.PermEdit))).Put("/{id}", h.Book.Update)
				books.With(authMiddleware.Require(permission.HasPermission(model.PermEdit))).Patch("/{id}", h.Book.Update)
				books.With(authMiddleware.Require(permission.HasPermission(model.PermDelete))).Delete("/{id}", h.Book.Delete)
			})

			api.Route("/posts", func(posts chi.Router) {
				posts.Get("/", h.Post.List)
				posts.Get("/{id}", h.Post.Get)
				posts.With(requireAuth).Post("/", h.Post.Create)
				posts.With(requireAuth).Put("/{id}", h.Post.Update)
				posts.With(requireAuth).Patch("/{id}", h.Post.Update)
				posts.With(requireAuth).Delete("/{id}", h.Post.Delete)
				posts.With(requireAuth).Post("/{id}/like", h.Post.Like)
				posts.With(requireAuth).Post("/{id}/unlike", h.Post.Unlike)
			})
			api.With(requireAuth).Get("/feed", h.Post.Feed)

			api.Route("/comments", func(comments chi.Router) {
				comments.Get("/", h.Comment.List)
				comments.Get("/{id}", h.Comment.Get)
				comments.With(requireAuth).Post("/", h.Comment.Create)
				comments.With(requireAuth).Put("/{id}", h.Comment.Update)
				comments.With(requireAuth).Patch("/{id}", h.Comment.Update)
				comments.With(requireAuth).Delete("/{id}", h.Comment.Delete)
			})

			api.Route("/notifications", func(notifications chi.Router) {
				notifications.Use(requireAuth)
				notifications.Get("/", h.Notification.List)
				notifications.Post("/{id}/read", h.Notification.MarkRead)
				notifications.Post("/read-all", h.Notification.MarkAllRead)
			})

			api.With(requireAdmin).Get("/audit", h.Audit.List)
		})
	})

	return r
}
