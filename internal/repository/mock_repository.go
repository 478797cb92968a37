package repository

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"go-bookshelf-api/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) CreateWithToken(ctx context.Context, u model.User, tokenKey string) (model.User, model.Token, error) {
	args := m.Called(ctx, u, tokenKey)
	return args.Get(0).(model.User), args.Get(1).(model.Token), args.Error(2)
}

func (m *MockUserStore) UpdateProfile(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserStore) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockUserStore) List(ctx context.Context, query model.UserListQuery) ([]model.User, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.User), args.Int(1), args.Error(2)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) GetOrCreate(ctx context.Context, userID int64, newKey string) (model.Token, error) {
	args := m.Called(ctx, userID, newKey)
	return args.Get(0).(model.Token), args.Error(1)
}

func (m *MockTokenStore) FindUserByKey(ctx context.Context, key string) (model.User, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockTokenStore) DeleteByKey(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockTokenStore) DeleteForUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockGroupStore struct {
	mock.Mock
}

func (m *MockGroupStore) List(ctx context.Context) ([]model.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Group), args.Error(1)
}

func (m *MockGroupStore) GroupsForUser(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGroupStore) PermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGroupStore) AddUserToGroup(ctx context.Context, userID int64, groupName string) error {
	args := m.Called(ctx, userID, groupName)
	return args.Error(0)
}

func (m *MockGroupStore) SetUserGroups(ctx context.Context, userID int64, groupNames []string) error {
	args := m.Called(ctx, userID, groupNames)
	return args.Error(0)
}

type MockAuthorStore struct {
	mock.Mock
}

func (m *MockAuthorStore) List(ctx context.Context, query model.AuthorQuery) ([]model.Author, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Author), args.Int(1), args.Error(2)
}

func (m *MockAuthorStore) FindByID(ctx context.Context, id int64) (model.Author, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Author), args.Error(1)
}

func (m *MockAuthorStore) Create(ctx context.Context, name string) (model.Author, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Author), args.Error(1)
}

func (m *MockAuthorStore) Update(ctx context.Context, id int64, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockAuthorStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockBookStore struct {
	mock.Mock
}

func (m *MockBookStore) List(ctx context.Context, query model.BookQuery) ([]model.Book, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Book), args.Int(1), args.Error(2)
}

func (m *MockBookStore) ListByAuthor(ctx context.Context, authorID int64) ([]model.Book, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Book), args.Error(1)
}

func (m *MockBookStore) FindByID(ctx context.Context, id int64) (model.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *MockBookStore) ExistsDuplicate(ctx context.Context, title string, authorID int64, year int, excludeID int64) (bool, error) {
	args := m.Called(ctx, title, authorID, year, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookStore) Create(ctx context.Context, b model.Book) (model.Book, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *MockBookStore) Update(ctx context.Context, b model.Book) (model.Book, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *MockBookStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) List(ctx context.Context, query model.PostQuery) ([]model.Post, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Post), args.Int(1), args.Error(2)
}

func (m *MockPostStore) FindByID(ctx context.Context, id int64, viewerID int64) (model.Post, error) {
	args := m.Called(ctx, id, viewerID)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) Create(ctx context.Context, p model.Post) (model.Post, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) Update(ctx context.Context, p model.Post) (model.Post, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCommentStore struct {
	mock.Mock
}

func (m *MockCommentStore) List(ctx context.Context, query model.CommentQuery) ([]model.Comment, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Comment), args.Int(1), args.Error(2)
}

func (m *MockCommentStore) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockCommentStore) FindByID(ctx context.Context, id int64) (model.Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockCommentStore) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockCommentStore) Update(ctx context.Context, c model.Comment) (model.Comment, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockCommentStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLikeStore struct {
	mock.Mock
}

func (m *MockLikeStore) Create(ctx context.Context, postID int64, userID int64) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeStore) Delete(ctx context.Context, postID int64, userID int64) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeStore) CountForPost(ctx context.Context, postID int64) (int, error) {
	args := m.Called(ctx, postID)
	return args.Int(0), args.Error(1)
}

type MockFollowStore struct {
	mock.Mock
}

func (m *MockFollowStore) Follow(ctx context.Context, followerID int64, followeeID int64) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowStore) Unfollow(ctx context.Context, followerID int64, followeeID int64) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowStore) IsFollowing(ctx context.Context, followerID int64, followeeID int64) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowStore) Counts(ctx context.Context, userID int64) (int, int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationStore) List(ctx context.Context, query model.NotificationQuery) ([]model.Notification, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Notification), args.Int(1), args.Error(2)
}

func (m *MockNotificationStore) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, id int64, recipientID int64) (model.Notification, error) {
	args := m.Called(ctx, id, recipientID)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Log(ctx context.Context, entry model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditStore) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Meta), args.Error(2)
	}
	return args.Get(0).([]model.AuditEntry), args.Get(1).(model.Meta), args.Error(2)
}
