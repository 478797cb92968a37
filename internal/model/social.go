package model

import "time"

const (
	VerbFollowed  = "started following you"
	VerbLiked     = "liked your post"
	VerbCommented = "commented on your post"
)

const (
	TargetPost    = "post"
	TargetComment = "comment"
	TargetUser    = "user"
)

type Post struct {
	ID             int64     `json:"id"`
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Content        string    `json:"content"`
	CommentsCount  int       `json:"comments_count"`
	LikesCount     int       `json:"likes_count"`
	IsLiked        bool      `json:"is_liked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

type PostInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type PostQuery struct {
	Search   string
	Ordering string
	AuthorID *int64
	// FollowedBy restricts results to posts written by users this user follows.
	FollowedBy int64
	ViewerID   int64
	Page       int
	PageSize   int
}

type Comment struct {
	ID             int64     `json:"id"`
	PostID         int64     `json:"post"`
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CommentInput struct {
	Post    *int64  `json:"post"`
	Content *string `json:"content"`
}

type CommentQuery struct {
	PostID   *int64
	AuthorID *int64
	Search   string
	Ordering string
	Page     int
	PageSize int
}

type LikeResult struct {
	Detail     string `json:"detail"`
	LikesCount int    `json:"likes_count"`
}

type Notification struct {
	ID            int64          `json:"id"`
	RecipientID   int64          `json:"recipient"`
	ActorID       int64          `json:"actor_id"`
	ActorUsername string         `json:"actor"`
	Verb          string         `json:"verb"`
	TargetType    string         `json:"target_type,omitempty"`
	TargetID      *int64         `json:"target_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	IsRead        bool           `json:"is_read"`
	Timestamp     time.Time      `json:"timestamp"`
}

type NotificationQuery struct {
	RecipientID int64
	UnreadOnly  bool
	Page        int
	PageSize    int
}

type NotificationList struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unread_count"`
}
