package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/gosimple/slug"

	"go-bookshelf-api/internal/event"
	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/permission"
	"go-bookshelf-api/pkg/apierror"
)

const (
	maxPostTitleLength = 255
	maxPostSlugLength  = 255
)

// postSlug transliterates the title to ASCII, which can lengthen it, so the
// result is cut back to the column width.
func postSlug(title string) string {
	value := slug.Make(title)
	if len(value) > maxPostSlugLength {
		value = strings.TrimRight(value[:maxPostSlugLength], "-")
	}
	return value
}

type PostService struct {
	posts         PostStore
	comments      CommentStore
	likes         LikeStore
	notifications *NotificationService
	bus           event.Bus
}

func NewPostService(posts PostStore, comments CommentStore, likes LikeStore, notifications *NotificationService, bus event.Bus) *PostService {
	return &PostService{posts: posts, comments: comments, likes: likes, notifications: notifications, bus: bus}
}

func (s *PostService) List(ctx context.Context, query model.PostQuery) ([]model.Post, model.Meta, error) {
	query.Page, query.PageSize = model.NormalizePage(query.Page, query.PageSize, model.DefaultPageSize)

	posts, total, err := s.posts.List(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return posts, model.NewMeta(query.Page, query.PageSize, total), nil
}

// Feed lists posts written by the users viewer follows, newest first.
func (s *PostService) Feed(ctx context.Context, viewerID int64, page int, pageSize int) ([]model.Post, model.Meta, error) {
	return s.List(ctx, model.PostQuery{
		FollowedBy: viewerID,
		ViewerID:   viewerID,
		Ordering:   "-created_at",
		Page:       page,
		PageSize:   pageSize,
	})
}

func (s *PostService) Get(ctx context.Context, id int64, viewerID int64) (model.PostDetail, error) {
	post, err := s.posts.FindByID(ctx, id, viewerID)
	if err != nil {
		return model.PostDetail{}, err
	}

	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return model.PostDetail{}, err
	}
	return model.PostDetail{Post: post, Comments: comments}, nil
}

func (s *PostService) Create(ctx context.Context, identity *model.Identity, input model.PostInput) (model.Post, error) {
	if identity == nil {
		return model.Post{}, model.ErrNotAuthenticated
	}

	fields := apierror.FieldErrors{}
	title := requiredText(input.Title, "title", maxPostTitleLength, fields)
	content := requiredText(input.Content, "content", 0, fields)
	if err := fields.Err(); err != nil {
		return model.Post{}, err
	}

	created, err := s.posts.Create(ctx, model.Post{
		AuthorID: identity.User.ID,
		Title:    title,
		Slug:     postSlug(title),
		Content:  content,
	})
	if err != nil {
		return model.Post{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypePostCreated, identity.User.ID, created))
	}
	return created, nil
}

// Update edits a post owned by the caller. A partial update keeps absent
// fields; a full update requires both title and content.
func (s *PostService) Update(ctx context.Context, identity *model.Identity, id int64, input model.PostInput, partial bool) (model.Post, error) {
	current, err := s.ownedPost(ctx, identity, id, http.MethodPut)
	if err != nil {
		return model.Post{}, err
	}

	fields := apierror.FieldErrors{}
	updated := current
	if input.Title != nil || !partial {
		updated.Title = requiredText(input.Title, "title", maxPostTitleLength, fields)
		updated.Slug = postSlug(updated.Title)
	}
	if input.Content != nil || !partial {
		updated.Content = requiredText(input.Content, "content", 0, fields)
	}
	if err := fields.Err(); err != nil {
		return model.Post{}, err
	}

	return s.posts.Update(ctx, updated)
}

func (s *PostService) Delete(ctx context.Context, identity *model.Identity, id int64) error {
	if _, err := s.ownedPost(ctx, identity, id, http.MethodDelete); err != nil {
		return err
	}
	return s.posts.Delete(ctx, id)
}

func (s *PostService) ownedPost(ctx context.Context, identity *model.Identity, id int64, method string) (model.Post, error) {
	post, err := s.posts.FindByID(ctx, id, identity.UserID())
	if err != nil {
		return model.Post{}, err
	}
	if err := permission.CheckOwner(identity, method, post.AuthorID); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// Like returns created=false when the caller already liked the post.
func (s *PostService) Like(ctx context.Context, identity *model.Identity, id int64) (model.LikeResult, bool, error) {
	if identity == nil {
		return model.LikeResult{}, false, model.ErrNotAuthenticated
	}

	post, err := s.posts.FindByID(ctx, id, identity.User.ID)
	if err != nil {
		return model.LikeResult{}, false, err
	}

	created, err := s.likes.Create(ctx, id, identity.User.ID)
	if err != nil {
		return model.LikeResult{}, false, err
	}

	count, err := s.likes.CountForPost(ctx, id)
	if err != nil {
		return model.LikeResult{}, false, err
	}

	if !created {
		return model.LikeResult{Detail: "You have already liked this post.", LikesCount: count}, false, nil
	}

	postID := post.ID
	s.notifications.Notify(ctx, post.AuthorID, identity.User, model.VerbLiked, model.TargetPost, &postID,
		map[string]any{"post_title": post.Title})
	return model.LikeResult{Detail: "Post liked.", LikesCount: count}, true, nil
}

func (s *PostService) Unlike(ctx context.Context, identity *model.Identity, id int64) (model.LikeResult, error) {
	if identity == nil {
		return model.LikeResult{}, model.ErrNotAuthenticated
	}

	if _, err := s.posts.FindByID(ctx, id, identity.User.ID); err != nil {
		return model.LikeResult{}, err
	}

	removed, err := s.likes.Delete(ctx, id, identity.User.ID)
	if err != nil {
		return model.LikeResult{}, err
	}
	if !removed {
		return model.LikeResult{}, apierror.New("BAD_REQUEST", "You have not liked this post.", "", http.StatusBadRequest)
	}

	count, err := s.likes.CountForPost(ctx, id)
	if err != nil {
		return model.LikeResult{}, err
	}
	return model.LikeResult{Detail: "Post unliked.", LikesCount: count}, nil
}
