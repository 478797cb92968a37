package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/repository"
	"go-bookshelf-api/pkg/apierror"
)

type authFixture struct {
	users  *repository.MockUserStore
	tokens *repository.MockTokenStore
	groups *repository.MockGroupStore
	svc    *AuthService
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	f := authFixture{
		users:  new(repository.MockUserStore),
		tokens: new(repository.MockTokenStore),
		groups: new(repository.MockGroupStore),
	}

	svc, err := NewAuthService(f.users, f.tokens, f.groups, nil, AuthOptions{
		SessionSecret:     "test-session-secret",
		SessionTTL:        time.Hour,
		BcryptCost:        bcrypt.MinCost,
		PasswordMinLength: 1,
		DefaultGroup:      model.GroupViewers,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected *apierror.APIError, got %v", err)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	return apiErr.Fields
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService(nil, nil, nil, nil, AuthOptions{})
	assert.Error(t, err)
}

func TestValidateUsername(t *testing.T) {
	invalid := "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	tests := []struct {
		name     string
		username string
		want     string
	}{
		{"ascii", "alice_1", ""},
		{"accented", "josé", ""},
		{"cyrillic", "дмитрий", ""},
		{"cjk", "山田", ""},
		{"arabic digits", "user٣", ""},
		{"symbols", "a.b@c+d-e", ""},
		{"empty", "", msgRequired},
		{"space", "two words", invalid},
		{"slash", "a/b", invalid},
		{"too long", strings.Repeat("é", maxUsernameLength+1), "Ensure this field has no more than 150 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateUsername(tt.username))
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user, default group and token", func(t *testing.T) {
		f := newAuthFixture(t)

		// Mock expectations
		f.users.On("ExistsByUsername", ctx, "t1").Return(false, nil)
		f.users.On("CreateWithToken", ctx, mock.MatchedBy(func(u model.User) bool {
			return u.Username == "t1" && u.IsActive && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("p1")) == nil
		}), mock.MatchedBy(func(key string) bool { return len(key) == 40 })).
			Return(model.User{ID: 7, Username: "t1", IsActive: true}, model.Token{Key: "abc123", UserID: 7}, nil)
		f.groups.On("AddUserToGroup", ctx, int64(7), model.GroupViewers).Return(nil)
		f.groups.On("GroupsForUser", ctx, int64(7)).Return([]string{model.GroupViewers}, nil)

		// Execute
		resp, err := f.svc.Register(ctx, model.RegisterRequest{Username: "t1", Password: "p1", PasswordConfirm: "p1"}, model.AuditActor{})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "abc123", resp.Token)
		assert.Equal(t, "User registered successfully", resp.Message)
		assert.Equal(t, "t1", resp.User.Username)
		assert.Equal(t, []string{model.GroupViewers}, resp.User.Groups)

		f.users.AssertExpectations(t)
		f.groups.AssertExpectations(t)
		f.tokens.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepts non-ascii letters in username", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", ctx, "josé").Return(false, nil)
		f.users.On("CreateWithToken", ctx, mock.MatchedBy(func(u model.User) bool { return u.Username == "josé" }), mock.Anything).
			Return(model.User{ID: 8, Username: "josé", IsActive: true}, model.Token{Key: "k", UserID: 8}, nil)
		f.groups.On("AddUserToGroup", ctx, int64(8), model.GroupViewers).Return(nil)
		f.groups.On("GroupsForUser", ctx, int64(8)).Return([]string{model.GroupViewers}, nil)

		resp, err := f.svc.Register(ctx, model.RegisterRequest{Username: "josé", Password: "p1", PasswordConfirm: "p1"}, model.AuditActor{})

		require.NoError(t, err)
		assert.Equal(t, "josé", resp.User.Username)
	})

	t.Run("password mismatch creates nothing", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", ctx, "t1").Return(false, nil)

		_, err := f.svc.Register(ctx, model.RegisterRequest{Username: "t1", Password: "p1", PasswordConfirm: "p2"}, model.AuditActor{})

		fields := fieldErrors(t, err)
		assert.Equal(t, "Passwords do not match.", fields["password_confirm"])
		f.users.AssertNotCalled(t, "CreateWithToken", mock.Anything, mock.Anything, mock.Anything)
		f.tokens.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("collects every invalid field", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", ctx, "taken").Return(true, nil)

		_, err := f.svc.Register(ctx, model.RegisterRequest{
			Username:    "taken",
			Email:       "not-an-email",
			DateOfBirth: "2999-01-01",
		}, model.AuditActor{})

		fields := fieldErrors(t, err)
		assert.Equal(t, "A user with that username already exists.", fields["username"])
		assert.Equal(t, "Enter a valid email address.", fields["email"])
		assert.Equal(t, msgRequired, fields["password"])
		assert.Equal(t, msgRequired, fields["password_confirm"])
		assert.Equal(t, "Date of birth cannot be in the future.", fields["date_of_birth"])
		f.users.AssertNotCalled(t, "CreateWithToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unique violation race maps to username field", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", ctx, "t1").Return(false, nil)
		f.users.On("CreateWithToken", ctx, mock.Anything, mock.Anything).Return(model.User{}, model.Token{},
			&model.ConstraintError{Constraint: "users_username_lower_key", Unique: true, Err: errors.New("duplicate")})

		_, err := f.svc.Register(ctx, model.RegisterRequest{Username: "t1", Password: "p1", PasswordConfirm: "p1"}, model.AuditActor{})

		fields := fieldErrors(t, err)
		assert.Contains(t, fields, "username")
	})

	t.Run("token failure is not reported as a taken username", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", ctx, "t1").Return(false, nil)
		f.users.On("CreateWithToken", ctx, mock.Anything, mock.Anything).Return(model.User{}, model.Token{},
			&model.ConstraintError{Constraint: "auth_tokens_pkey", Unique: true, Err: errors.New("duplicate key")})

		_, err := f.svc.Register(ctx, model.RegisterRequest{Username: "t1", Password: "p1", PasswordConfirm: "p1"}, model.AuditActor{})

		require.Error(t, err)
		var apiErr *apierror.APIError
		assert.False(t, errors.As(err, &apiErr))
		f.groups.AssertNotCalled(t, "AddUserToGroup", mock.Anything, mock.Anything, mock.Anything)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash := hashPassword(t, "p1")

	t.Run("returns the existing token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "t1").Return(model.User{ID: 3, Username: "t1", PasswordHash: hash, IsActive: true}, nil)
		f.users.On("UpdateLastLogin", ctx, int64(3), mock.AnythingOfType("time.Time")).Return(nil)
		f.tokens.On("GetOrCreate", ctx, int64(3), mock.AnythingOfType("string")).Return(model.Token{Key: "existing", UserID: 3}, nil)
		f.groups.On("GroupsForUser", ctx, int64(3)).Return([]string{}, nil)

		resp, err := f.svc.Login(ctx, model.LoginRequest{Username: "t1", Password: "p1"}, model.AuditActor{})

		require.NoError(t, err)
		assert.Equal(t, "existing", resp.Token)
		assert.Equal(t, "Login successful", resp.Message)
		f.users.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "t1").Return(model.User{ID: 3, Username: "t1", PasswordHash: hash, IsActive: true}, nil)

		_, err := f.svc.Login(ctx, model.LoginRequest{Username: "t1", Password: "nope"}, model.AuditActor{})

		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
		f.tokens.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "ghost").Return(model.User{}, model.ErrUserNotFound)

		_, err := f.svc.Login(ctx, model.LoginRequest{Username: "ghost", Password: "p1"}, model.AuditActor{})

		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "t1").Return(model.User{ID: 3, Username: "t1", PasswordHash: hash, IsActive: false}, nil)

		_, err := f.svc.Login(ctx, model.LoginRequest{Username: "t1", Password: "p1"}, model.AuditActor{})

		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Login(ctx, model.LoginRequest{}, model.AuditActor{})

		fields := fieldErrors(t, err)
		assert.Len(t, fields, 2)
		f.users.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
	})
}

func TestAuthService_AuthenticateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("loads permissions on every call", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindUserByKey", ctx, "k1").Return(model.User{ID: 4, Username: "ed", IsActive: true}, nil)
		f.groups.On("GroupsForUser", ctx, int64(4)).Return([]string{model.GroupEditors}, nil)
		f.groups.On("PermissionsForUser", ctx, int64(4)).Return([]string{model.PermView, model.PermCreate, model.PermEdit}, nil)

		identity, err := f.svc.AuthenticateToken(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, identity.HasPermission(model.PermEdit))
		assert.False(t, identity.HasPermission(model.PermDelete))
		assert.Equal(t, model.AuthMethodToken, identity.Method)
		assert.Equal(t, "k1", identity.TokenKey)

		_, err = f.svc.AuthenticateToken(ctx, "k1")
		require.NoError(t, err)
		f.groups.AssertNumberOfCalls(t, "PermissionsForUser", 2)
	})

	t.Run("unknown key", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindUserByKey", ctx, "bogus").Return(model.User{}, model.ErrTokenNotFound)

		_, err := f.svc.AuthenticateToken(ctx, "bogus")
		assert.ErrorIs(t, err, model.ErrTokenNotFound)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokens.On("FindUserByKey", ctx, "k2").Return(model.User{ID: 5, IsActive: false}, nil)

		_, err := f.svc.AuthenticateToken(ctx, "k2")
		assert.ErrorIs(t, err, model.ErrUserInactive)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	identity := model.NewIdentity(model.User{ID: 9, Username: "t1", IsActive: true}, nil, nil, model.AuthMethodToken)

	f.tokens.On("DeleteForUser", ctx, int64(9)).Return(nil)

	require.NoError(t, f.svc.Logout(ctx, identity, model.AuditActor{}))
	assert.ErrorIs(t, f.svc.Logout(ctx, nil, model.AuditActor{}), model.ErrNotAuthenticated)
	f.tokens.AssertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: 2, Username: "t1", PasswordHash: hashPassword(t, "old"), IsActive: true}
	identity := model.NewIdentity(user, nil, nil, model.AuthMethodToken)

	t.Run("rotates the token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByID", ctx, int64(2)).Return(user, nil)
		f.users.On("UpdatePassword", ctx, int64(2), mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new")) == nil
		})).Return(nil)
		f.tokens.On("DeleteForUser", ctx, int64(2)).Return(nil)
		f.tokens.On("GetOrCreate", ctx, int64(2), mock.AnythingOfType("string")).Return(model.Token{Key: "rotated"}, nil)
		f.groups.On("GroupsForUser", ctx, int64(2)).Return([]string{}, nil)

		resp, err := f.svc.ChangePassword(ctx, identity, model.ChangePasswordRequest{
			OldPassword: "old", NewPassword: "new", NewPasswordConfirm: "new",
		}, model.AuditActor{})

		require.NoError(t, err)
		assert.Equal(t, "rotated", resp.Token)
		f.users.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
	})

	t.Run("wrong old password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByID", ctx, int64(2)).Return(user, nil)

		_, err := f.svc.ChangePassword(ctx, identity, model.ChangePasswordRequest{
			OldPassword: "guess", NewPassword: "new", NewPasswordConfirm: "other",
		}, model.AuditActor{})

		fields := fieldErrors(t, err)
		assert.Equal(t, "Old password is not correct.", fields["old_password"])
		assert.Equal(t, "Passwords do not match.", fields["new_password_confirm"])
		f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_Session(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: 6, Username: "t1", PasswordHash: hashPassword(t, "p1"), IsActive: true}

	f := newAuthFixture(t)
	f.users.On("FindByUsername", ctx, "t1").Return(user, nil)
	f.users.On("UpdateLastLogin", ctx, int64(6), mock.AnythingOfType("time.Time")).Return(nil)
	f.groups.On("GroupsForUser", ctx, int64(6)).Return([]string{model.GroupViewers}, nil)
	f.groups.On("PermissionsForUser", ctx, int64(6)).Return([]string{model.PermView}, nil)

	session, err := f.svc.SessionLogin(ctx, model.LoginRequest{Username: "t1", Password: "p1"}, model.AuditActor{})
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionToken)
	assert.Len(t, session.CSRFToken, 64)
	assert.Equal(t, 3600, session.MaxAge)

	t.Run("valid session resolves identity", func(t *testing.T) {
		users := new(repository.MockUserStore)
		users.On("FindByID", ctx, int64(6)).Return(user, nil)
		f.svc.users = users

		identity, err := f.svc.AuthenticateSession(ctx, session.SessionToken)
		require.NoError(t, err)
		assert.Equal(t, model.AuthMethodSession, identity.Method)
		assert.True(t, identity.HasPermission(model.PermView))
	})

	t.Run("password change invalidates session", func(t *testing.T) {
		changed := user
		changed.PasswordHash = hashPassword(t, "p2")
		users := new(repository.MockUserStore)
		users.On("FindByID", ctx, int64(6)).Return(changed, nil)
		f.svc.users = users

		_, err := f.svc.AuthenticateSession(ctx, session.SessionToken)
		assert.Error(t, err)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		_, err := f.svc.AuthenticateSession(ctx, session.SessionToken+"x")
		assert.Error(t, err)
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates staff superuser once", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", ctx, "admin").Return(false, nil)
		f.users.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
			return u.IsStaff && u.IsSuperuser && u.IsActive
		})).Return(model.User{ID: 1, Username: "admin"}, nil)
		f.groups.On("AddUserToGroup", ctx, int64(1), model.GroupAdmins).Return(nil)

		require.NoError(t, f.svc.EnsureAdmin(ctx, "admin", "admin@example.com", "secret"))
		f.users.AssertExpectations(t)
		f.groups.AssertExpectations(t)
	})

	t.Run("skips existing user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", ctx, "admin").Return(true, nil)

		require.NoError(t, f.svc.EnsureAdmin(ctx, "admin", "", "secret"))
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
