package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/pkg/apierror"
)

const (
	sessionTokenType = "session"
	tokenKeyBytes    = 20
	csrfTokenBytes   = 32
)

type AuthOptions struct {
	SessionSecret     string
	SessionTTL        time.Duration
	BcryptCost        int
	PasswordMinLength int
	DefaultGroup      string
}

type AuthService struct {
	users             UserStore
	tokens            TokenStore
	groups            GroupStore
	audit             *AuditService
	sessionSecret     []byte
	sessionTTL        time.Duration
	bcryptCost        int
	passwordMinLength int
	defaultGroup      string
	now               func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, groups GroupStore, audit *AuditService, opts AuthOptions) (*AuthService, error) {
	if strings.TrimSpace(opts.SessionSecret) == "" {
		return nil, errors.New("session secret is required")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 14 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.PasswordMinLength < 1 {
		opts.PasswordMinLength = 1
	}

	return &AuthService{
		users:             users,
		tokens:            tokens,
		groups:            groups,
		audit:             audit,
		sessionSecret:     []byte(opts.SessionSecret),
		sessionTTL:        opts.SessionTTL,
		bcryptCost:        opts.BcryptCost,
		passwordMinLength: opts.PasswordMinLength,
		defaultGroup:      strings.TrimSpace(opts.DefaultGroup),
		now:               func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, actor model.AuditActor) (model.AuthResponse, error) {
	user, fields, err := s.validateRegistration(ctx, req)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if err := fields.Err(); err != nil {
		s.audit.Log(ctx, "auth.register", actor, "failed", req.Username, nil, nil, err.Error())
		return model.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	created, token, err := s.users.CreateWithToken(ctx, user, newTokenKey())
	if err != nil {
		var constraintErr *model.ConstraintError
		if errors.As(err, &constraintErr) && constraintErr.Unique && constraintErr.Constraint != tokenKeyConstraint {
			return model.AuthResponse{}, userConstraintError(constraintErr)
		}
		return model.AuthResponse{}, err
	}

	if s.defaultGroup != "" {
		if err := s.groups.AddUserToGroup(ctx, created.ID, s.defaultGroup); err != nil {
			slog.Warn("failed to assign default group", "user_id", created.ID, "group", s.defaultGroup, "error", err)
		}
	}

	actor.UserID, actor.Username = created.ID, created.Username
	s.audit.Log(ctx, "auth.register", actor, "success", "user:"+strconv.FormatInt(created.ID, 10), nil, created.Response(), "")
	slog.Info("user registered", "user_id", created.ID, "username", created.Username)

	resp, err := s.userResponse(ctx, created)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{User: resp, Token: token.Key, Message: "User registered successfully"}, nil
}

func (s *AuthService) validateRegistration(ctx context.Context, req model.RegisterRequest) (model.User, apierror.FieldErrors, error) {
	fields := apierror.FieldErrors{}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if msg := validateUsername(username); msg != "" {
		fields.Add("username", msg)
	} else {
		taken, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return model.User{}, nil, err
		}
		if taken {
			fields.Add("username", "A user with that username already exists.")
		}
	}

	if email != "" {
		if msg := validateEmail(email); msg != "" {
			fields.Add("email", msg)
		} else {
			taken, err := s.users.ExistsByEmail(ctx, email)
			if err != nil {
				return model.User{}, nil, err
			}
			if taken {
				fields.Add("email", "A user with that email already exists.")
			}
		}
	}

	if msg := s.validatePassword(req.Password); msg != "" {
		fields.Add("password", msg)
	}
	if req.PasswordConfirm == "" {
		fields.Add("password_confirm", msgRequired)
	} else if req.Password != req.PasswordConfirm {
		fields.Add("password_confirm", "Passwords do not match.")
	}

	validateNameFields(fields, req.FirstName, req.LastName)
	if msg := validateBio(req.Bio); msg != "" {
		fields.Add("bio", msg)
	}

	dob, msg := parseDateOfBirth(req.DateOfBirth, s.now())
	if msg != "" {
		fields.Add("date_of_birth", msg)
	}

	return model.User{
		Username:    username,
		Email:       email,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Bio:         strings.TrimSpace(req.Bio),
		DateOfBirth: dob,
		IsActive:    true,
	}, fields, nil
}

func (s *AuthService) validatePassword(password string) string {
	if password == "" {
		return msgRequired
	}
	if len([]rune(password)) < s.passwordMinLength {
		return fmt.Sprintf("Ensure this field has at least %d characters.", s.passwordMinLength)
	}
	return ""
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, actor model.AuditActor) (model.AuthResponse, error) {
	user, err := s.checkCredentials(ctx, req, actor)
	if err != nil {
		return model.AuthResponse{}, err
	}

	token, err := s.tokens.GetOrCreate(ctx, user.ID, newTokenKey())
	if err != nil {
		return model.AuthResponse{}, err
	}

	resp, err := s.userResponse(ctx, user)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{User: resp, Token: token.Key, Message: "Login successful"}, nil
}

// checkCredentials verifies a username/password pair. Unknown users, wrong
// passwords and inactive accounts are indistinguishable to the caller.
func (s *AuthService) checkCredentials(ctx context.Context, req model.LoginRequest, actor model.AuditActor) (model.User, error) {
	fields := apierror.FieldErrors{}
	if strings.TrimSpace(req.Username) == "" {
		fields.Add("username", msgRequired)
	}
	if req.Password == "" {
		fields.Add("password", msgRequired)
	}
	if err := fields.Err(); err != nil {
		return model.User{}, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if errors.Is(err, model.ErrUserNotFound) {
		s.audit.Log(ctx, "auth.login", actor, "failed", req.Username, nil, nil, "unknown user")
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.audit.Log(ctx, "auth.login", actor, "failed", user.Username, nil, nil, "wrong password")
		return model.User{}, model.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.audit.Log(ctx, "auth.login", actor, "failed", user.Username, nil, nil, "inactive user")
		return model.User{}, model.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}

	actor.UserID, actor.Username = user.ID, user.Username
	s.audit.Log(ctx, "auth.login", actor, "success", user.Username, nil, nil, "")
	return user, nil
}

// Logout deletes the caller's token so it no longer authenticates.
func (s *AuthService) Logout(ctx context.Context, identity *model.Identity, actor model.AuditActor) error {
	if identity == nil {
		return model.ErrNotAuthenticated
	}

	if err := s.tokens.DeleteForUser(ctx, identity.User.ID); err != nil {
		return err
	}

	s.audit.Log(ctx, "auth.logout", actor, "success", identity.User.Username, nil, nil, "")
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, identity *model.Identity, req model.ChangePasswordRequest, actor model.AuditActor) (model.AuthResponse, error) {
	if identity == nil {
		return model.AuthResponse{}, model.ErrNotAuthenticated
	}

	user, err := s.users.FindByID(ctx, identity.User.ID)
	if err != nil {
		return model.AuthResponse{}, err
	}

	fields := apierror.FieldErrors{}
	if req.OldPassword == "" {
		fields.Add("old_password", msgRequired)
	} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		fields.Add("old_password", "Old password is not correct.")
	}
	if msg := s.validatePassword(req.NewPassword); msg != "" {
		fields.Add("new_password", msg)
	}
	if req.NewPasswordConfirm == "" {
		fields.Add("new_password_confirm", msgRequired)
	} else if req.NewPassword != req.NewPasswordConfirm {
		fields.Add("new_password_confirm", "Passwords do not match.")
	}
	if err := fields.Err(); err != nil {
		return model.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return model.AuthResponse{}, err
	}
	user.PasswordHash = string(hash)

	if err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
		return model.AuthResponse{}, err
	}
	token, err := s.tokens.GetOrCreate(ctx, user.ID, newTokenKey())
	if err != nil {
		return model.AuthResponse{}, err
	}

	s.audit.Log(ctx, "auth.password_change", actor, "success", user.Username, nil, nil, "")

	resp, err := s.userResponse(ctx, user)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{User: resp, Token: token.Key, Message: "Password updated successfully"}, nil
}

// AuthenticateToken resolves a token key to an identity. Every call reads
// the token, the user and the user's permissions from the store.
func (s *AuthService) AuthenticateToken(ctx context.Context, key string) (*model.Identity, error) {
	user, err := s.tokens.FindUserByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, model.ErrUserInactive
	}

	identity, err := s.loadIdentity(ctx, user, model.AuthMethodToken)
	if err != nil {
		return nil, err
	}
	identity.TokenKey = key
	return identity, nil
}

func (s *AuthService) SessionLogin(ctx context.Context, req model.LoginRequest, actor model.AuditActor) (model.SessionResponse, error) {
	user, err := s.checkCredentials(ctx, req, actor)
	if err != nil {
		return model.SessionResponse{}, err
	}

	now := s.now()
	signed, err := s.signSession(jwt.MapClaims{
		"sub": strconv.FormatInt(user.ID, 10),
		"typ": sessionTokenType,
		"jti": uuid.NewString(),
		"sah": s.sessionAuthHash(user),
		"iat": now.Unix(),
		"exp": now.Add(s.sessionTTL).Unix(),
	})
	if err != nil {
		return model.SessionResponse{}, fmt.Errorf("sign session: %w", err)
	}

	resp, err := s.userResponse(ctx, user)
	if err != nil {
		return model.SessionResponse{}, err
	}

	return model.SessionResponse{
		User:         resp,
		CSRFToken:    randomHex(csrfTokenBytes),
		Message:      "Login successful",
		SessionToken: signed,
		MaxAge:       int(s.sessionTTL.Seconds()),
	}, nil
}

// AuthenticateSession validates a signed session cookie. Sessions issued
// before the user's last password change are rejected.
func (s *AuthService) AuthenticateSession(ctx context.Context, raw string) (*model.Identity, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid session signing method", "", http.StatusUnauthorized)
		}
		return s.sessionSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.New("UNAUTHORIZED", "invalid session", "", http.StatusUnauthorized)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.New("UNAUTHORIZED", "invalid session claims", "", http.StatusUnauthorized)
	}
	if typ, _ := claims["typ"].(string); typ != sessionTokenType {
		return nil, apierror.New("UNAUTHORIZED", "invalid session type", "", http.StatusUnauthorized)
	}

	subject, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, apierror.New("UNAUTHORIZED", "invalid session subject", "", http.StatusUnauthorized)
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, apierror.New("UNAUTHORIZED", "invalid session", "", http.StatusUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, model.ErrUserInactive
	}

	authHash, _ := claims["sah"].(string)
	if !hmac.Equal([]byte(authHash), []byte(s.sessionAuthHash(user))) {
		return nil, apierror.New("UNAUTHORIZED", "session expired", "", http.StatusUnauthorized)
	}

	return s.loadIdentity(ctx, user, model.AuthMethodSession)
}

// EnsureAdmin creates a staff superuser when the username is free.
func (s *AuthService) EnsureAdmin(ctx context.Context, username string, email string, password string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := s.users.Create(ctx, model.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	if err := s.groups.AddUserToGroup(ctx, created.ID, model.GroupAdmins); err != nil {
		slog.Warn("failed to add admin to group", "user_id", created.ID, "error", err)
	}

	slog.Info("admin user created", "user_id", created.ID, "username", created.Username)
	return nil
}

func (s *AuthService) loadIdentity(ctx context.Context, user model.User, method model.AuthMethod) (*model.Identity, error) {
	groups, err := s.groups.GroupsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.groups.PermissionsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return model.NewIdentity(user, groups, permissions, method), nil
}

func (s *AuthService) userResponse(ctx context.Context, user model.User) (model.UserResponse, error) {
	resp := user.Response()
	groups, err := s.groups.GroupsForUser(ctx, user.ID)
	if err != nil {
		return model.UserResponse{}, err
	}
	resp.Groups = groups
	return resp, nil
}

func (s *AuthService) signSession(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.sessionSecret)
}

// sessionAuthHash binds a session to the password hash it was issued under.
func (s *AuthService) sessionAuthHash(user model.User) string {
	mac := hmac.New(sha256.New, s.sessionSecret)
	mac.Write([]byte(user.PasswordHash))
	return hex.EncodeToString(mac.Sum(nil))
}

// tokenKeyConstraint is the primary key of auth_tokens; a clash there is a
// key collision, not a duplicate user.
const tokenKeyConstraint = "auth_tokens_pkey"

func userConstraintError(err *model.ConstraintError) error {
	switch {
	case strings.Contains(err.Constraint, "email"):
		return apierror.Validation(map[string]string{"email": "A user with that email already exists."})
	default:
		return apierror.Validation(map[string]string{"username": "A user with that username already exists."})
	}
}

func newTokenKey() string {
	return randomHex(tokenKeyBytes)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(buf)
}
