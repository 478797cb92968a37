package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/pkg/apierror"
)

type UserService struct {
	users         UserStore
	groups        GroupStore
	follows       FollowStore
	notifications *NotificationService
	audit         *AuditService
	now           func() time.Time
}

func NewUserService(users UserStore, groups GroupStore, follows FollowStore, notifications *NotificationService, audit *AuditService) *UserService {
	return &UserService{
		users:         users,
		groups:        groups,
		follows:       follows,
		notifications: notifications,
		audit:         audit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Profile returns the caller's full profile with group names and follow counts.
func (s *UserService) Profile(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return s.profileResponse(ctx, user)
}

func (s *UserService) profileResponse(ctx context.Context, user model.User) (model.UserResponse, error) {
	resp := user.Response()

	groups, err := s.groups.GroupsForUser(ctx, user.ID)
	if err != nil {
		return model.UserResponse{}, err
	}
	resp.Groups = groups

	followers, following, err := s.follows.Counts(ctx, user.ID)
	if err != nil {
		return model.UserResponse{}, err
	}
	resp.FollowersCount = &followers
	resp.FollowingCount = &following
	return resp, nil
}

// UpdateProfile changes the editable profile fields. Username and email are
// read-only here. With partial unset, omitted fields are cleared.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest, partial bool, actor model.AuditActor) (model.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	before := user.Response()

	fields := apierror.FieldErrors{}
	text := func(value *string, current string) string {
		if value != nil {
			return strings.TrimSpace(*value)
		}
		if partial {
			return current
		}
		return ""
	}

	user.FirstName = text(req.FirstName, user.FirstName)
	user.LastName = text(req.LastName, user.LastName)
	user.Bio = text(req.Bio, user.Bio)
	validateNameFields(fields, user.FirstName, user.LastName)
	if msg := validateBio(user.Bio); msg != "" {
		fields.Add("bio", msg)
	}

	switch {
	case req.DateOfBirth != nil:
		dob, msg := parseDateOfBirth(*req.DateOfBirth, s.now())
		if msg != "" {
			fields.Add("date_of_birth", msg)
		}
		user.DateOfBirth = dob
	case !partial:
		user.DateOfBirth = nil
	}

	if err := fields.Err(); err != nil {
		return model.UserResponse{}, err
	}

	updated, err := s.users.UpdateProfile(ctx, user)
	if err != nil {
		return model.UserResponse{}, err
	}

	resp, err := s.profileResponse(ctx, updated)
	if err != nil {
		return model.UserResponse{}, err
	}
	s.audit.Log(ctx, "profile.update", actor, "success", userResource(userID), before, resp, "")
	return resp, nil
}

func (s *UserService) List(ctx context.Context, query model.UserListQuery) ([]model.UserResponse, model.Meta, error) {
	query.Page, query.PageSize = model.NormalizePage(query.Page, query.PageSize, model.DefaultPageSize)

	users, total, err := s.users.List(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}

	items := make([]model.UserResponse, 0, len(users))
	for _, user := range users {
		resp := user.Response()
		groups, err := s.groups.GroupsForUser(ctx, user.ID)
		if err != nil {
			return nil, model.Meta{}, err
		}
		resp.Groups = groups
		items = append(items, resp)
	}
	return items, model.NewMeta(query.Page, query.PageSize, total), nil
}

// Summary is the public view of a user as seen by viewerID (zero for
// anonymous viewers).
func (s *UserService) Summary(ctx context.Context, userID int64, viewerID int64) (model.UserSummary, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.UserSummary{}, err
	}
	if !user.IsActive {
		return model.UserSummary{}, model.ErrUserNotFound
	}
	return s.summary(ctx, user, viewerID)
}

func (s *UserService) summary(ctx context.Context, user model.User, viewerID int64) (model.UserSummary, error) {
	followers, following, err := s.follows.Counts(ctx, user.ID)
	if err != nil {
		return model.UserSummary{}, err
	}

	summary := model.UserSummary{
		ID:             user.ID,
		Username:       user.Username,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		FollowersCount: followers,
		FollowingCount: following,
	}
	if viewerID != 0 && viewerID != user.ID {
		summary.IsFollowing, err = s.follows.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return model.UserSummary{}, err
		}
	}
	return summary, nil
}

func (s *UserService) ListGroups(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

// SetGroups replaces the user's group memberships. Names are matched
// exactly; an unknown name rejects the whole request.
func (s *UserService) SetGroups(ctx context.Context, userID int64, req model.UpdateGroupsRequest, actor model.AuditActor) (model.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	if req.Groups == nil {
		return model.UserResponse{}, apierror.Validation(map[string]string{"groups": msgRequired})
	}

	seen := make(map[string]struct{}, len(req.Groups))
	names := make([]string, 0, len(req.Groups))
	for _, raw := range req.Groups {
		name := strings.TrimSpace(raw)
		if name == "" {
			return model.UserResponse{}, apierror.Validation(map[string]string{"groups": msgBlank})
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	before, err := s.groups.GroupsForUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	if err := s.groups.SetUserGroups(ctx, userID, names); err != nil {
		if errors.Is(err, model.ErrGroupNotFound) {
			return model.UserResponse{}, apierror.Validation(map[string]string{"groups": "One or more groups do not exist."})
		}
		return model.UserResponse{}, err
	}

	resp, err := s.profileResponse(ctx, user)
	if err != nil {
		return model.UserResponse{}, err
	}
	s.audit.Log(ctx, "user.groups", actor, "success", userResource(userID), before, resp.Groups, "")
	slog.Info("user groups updated", "user_id", userID, "groups", names, "by", actor.UserID)
	return resp, nil
}

// Follow returns created=false when the follow already existed.
func (s *UserService) Follow(ctx context.Context, follower model.User, targetID int64) (model.FollowResult, bool, error) {
	target, err := s.Summary(ctx, targetID, follower.ID)
	if err != nil {
		return model.FollowResult{}, false, err
	}
	if follower.ID == targetID {
		return model.FollowResult{}, false, apierror.New("BAD_REQUEST", "You cannot follow yourself.", "", http.StatusBadRequest)
	}

	created, err := s.follows.Follow(ctx, follower.ID, targetID)
	if err != nil {
		return model.FollowResult{}, false, err
	}
	if !created {
		return model.FollowResult{Detail: "Already following this user.", User: target}, false, nil
	}

	s.notifications.Notify(ctx, targetID, follower, model.VerbFollowed, model.TargetUser, &follower.ID, nil)

	target, err = s.Summary(ctx, targetID, follower.ID)
	if err != nil {
		return model.FollowResult{}, false, err
	}
	return model.FollowResult{Detail: fmt.Sprintf("You are now following %s.", target.Username), User: target}, true, nil
}

func (s *UserService) Unfollow(ctx context.Context, follower model.User, targetID int64) (model.FollowResult, error) {
	target, err := s.Summary(ctx, targetID, follower.ID)
	if err != nil {
		return model.FollowResult{}, err
	}
	if follower.ID == targetID {
		return model.FollowResult{}, apierror.New("BAD_REQUEST", "You cannot unfollow yourself.", "", http.StatusBadRequest)
	}

	removed, err := s.follows.Unfollow(ctx, follower.ID, targetID)
	if err != nil {
		return model.FollowResult{}, err
	}
	if !removed {
		return model.FollowResult{}, apierror.New("BAD_REQUEST", "You are not following this user.", "", http.StatusBadRequest)
	}

	target, err = s.Summary(ctx, targetID, follower.ID)
	if err != nil {
		return model.FollowResult{}, err
	}
	return model.FollowResult{Detail: fmt.Sprintf("You have unfollowed %s.", target.Username), User: target}, nil
}

func userResource(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}
