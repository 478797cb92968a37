package service

import (
	"context"
	"time"

	"go-bookshelf-api/internal/model"
)

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	CreateWithToken(ctx context.Context, u model.User, tokenKey string) (model.User, model.Token, error)
	UpdateProfile(ctx context.Context, u model.User) (model.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	List(ctx context.Context, query model.UserListQuery) ([]model.User, int, error)
}

type TokenStore interface {
	GetOrCreate(ctx context.Context, userID int64, newKey string) (model.Token, error)
	FindUserByKey(ctx context.Context, key string) (model.User, error)
	DeleteByKey(ctx context.Context, key string) error
	DeleteForUser(ctx context.Context, userID int64) error
}

type GroupStore interface {
	List(ctx context.Context) ([]model.Group, error)
	GroupsForUser(ctx context.Context, userID int64) ([]string, error)
	PermissionsForUser(ctx context.Context, userID int64) ([]string, error)
	AddUserToGroup(ctx context.Context, userID int64, groupName string) error
	SetUserGroups(ctx context.Context, userID int64, groupNames []string) error
}

type AuthorStore interface {
	List(ctx context.Context, query model.AuthorQuery) ([]model.Author, int, error)
	FindByID(ctx context.Context, id int64) (model.Author, error)
	Create(ctx context.Context, name string) (model.Author, error)
	Update(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type BookStore interface {
	List(ctx context.Context, query model.BookQuery) ([]model.Book, int, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.Book, error)
	FindByID(ctx context.Context, id int64) (model.Book, error)
	ExistsDuplicate(ctx context.Context, title string, authorID int64, year int, excludeID int64) (bool, error)
	Create(ctx context.Context, b model.Book) (model.Book, error)
	Update(ctx context.Context, b model.Book) (model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type PostStore interface {
	List(ctx context.Context, query model.PostQuery) ([]model.Post, int, error)
	FindByID(ctx context.Context, id int64, viewerID int64) (model.Post, error)
	Create(ctx context.Context, p model.Post) (model.Post, error)
	Update(ctx context.Context, p model.Post) (model.Post, error)
	Delete(ctx context.Context, id int64) error
}

type CommentStore interface {
	List(ctx context.Context, query model.CommentQuery) ([]model.Comment, int, error)
	ListByPost(ctx context.Context, postID int64) ([]model.Comment, error)
	FindByID(ctx context.Context, id int64) (model.Comment, error)
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	Update(ctx context.Context, c model.Comment) (model.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type LikeStore interface {
	Create(ctx context.Context, postID int64, userID int64) (bool, error)
	Delete(ctx context.Context, postID int64, userID int64) (bool, error)
	CountForPost(ctx context.Context, postID int64) (int, error)
}

type FollowStore interface {
	Follow(ctx context.Context, followerID int64, followeeID int64) (bool, error)
	Unfollow(ctx context.Context, followerID int64, followeeID int64) (bool, error)
	IsFollowing(ctx context.Context, followerID int64, followeeID int64) (bool, error)
	Counts(ctx context.Context, userID int64) (int, int, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n model.Notification) (model.Notification, error)
	List(ctx context.Context, query model.NotificationQuery) ([]model.Notification, int, error)
	UnreadCount(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id int64, recipientID int64) (model.Notification, error)
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}
