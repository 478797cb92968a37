package model

import "time"

const (
	PermView   = "can_view"
	PermCreate = "can_create"
	PermEdit   = "can_edit"
	PermDelete = "can_delete"
)

const (
	GroupViewers = "Viewers"
	GroupEditors = "Editors"
	GroupAdmins  = "Admins"
)

const DateLayout = "2006-01-02"

type User struct {
	ID             int64
	Username       string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Bio            string
	ProfilePicture string
	DateOfBirth    *time.Time
	IsActive       bool
	IsStaff        bool
	IsSuperuser    bool
	DateJoined     time.Time
	LastLogin      *time.Time
	UpdatedAt      time.Time
}

type UserResponse struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	DateOfBirth    string    `json:"date_of_birth,omitempty"`
	IsStaff        bool      `json:"is_staff"`
	DateJoined     time.Time `json:"date_joined"`
	Groups         []string  `json:"groups,omitempty"`
	FollowersCount *int      `json:"followers_count,omitempty"`
	FollowingCount *int      `json:"following_count,omitempty"`
}

func (u User) Response() UserResponse {
	resp := UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		IsStaff:        u.IsStaff,
		DateJoined:     u.DateJoined,
	}
	if u.DateOfBirth != nil {
		resp.DateOfBirth = u.DateOfBirth.Format(DateLayout)
	}
	return resp
}

type UserSummary struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}

type UserListQuery struct {
	Search   string
	Page     int
	PageSize int
}

type Token struct {
	Key       string    `json:"key"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Group struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type FollowResult struct {
	Detail string      `json:"detail"`
	User   UserSummary `json:"user"`
}
