package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/permission"
	"go-bookshelf-api/pkg/apierror"
)

const commentPageSize = 20

type CommentService struct {
	comments      CommentStore
	posts         PostStore
	notifications *NotificationService
}

func NewCommentService(comments CommentStore, posts PostStore, notifications *NotificationService) *CommentService {
	return &CommentService{comments: comments, posts: posts, notifications: notifications}
}

func (s *CommentService) List(ctx context.Context, query model.CommentQuery) ([]model.Comment, model.Meta, error) {
	query.Page, query.PageSize = model.NormalizePage(query.Page, query.PageSize, commentPageSize)

	comments, total, err := s.comments.List(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return comments, model.NewMeta(query.Page, query.PageSize, total), nil
}

func (s *CommentService) Get(ctx context.Context, id int64) (model.Comment, error) {
	return s.comments.FindByID(ctx, id)
}

// Create adds a comment and notifies the post's author.
func (s *CommentService) Create(ctx context.Context, identity *model.Identity, input model.CommentInput) (model.Comment, error) {
	if identity == nil {
		return model.Comment{}, model.ErrNotAuthenticated
	}

	fields := apierror.FieldErrors{}
	content := requiredText(input.Content, "content", 0, fields)

	var post model.Post
	if input.Post == nil {
		fields.Add("post", msgRequired)
	} else {
		found, err := s.posts.FindByID(ctx, *input.Post, identity.User.ID)
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			fields.Add("post", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *input.Post))
		case err != nil:
			return model.Comment{}, err
		default:
			post = found
		}
	}
	if err := fields.Err(); err != nil {
		return model.Comment{}, err
	}

	created, err := s.comments.Create(ctx, model.Comment{
		PostID:   post.ID,
		AuthorID: identity.User.ID,
		Content:  content,
	})
	if err != nil {
		return model.Comment{}, err
	}

	postID := post.ID
	s.notifications.Notify(ctx, post.AuthorID, identity.User, model.VerbCommented, model.TargetPost, &postID,
		map[string]any{"comment_id": created.ID, "post_title": post.Title})
	return created, nil
}

// Update changes the content of a comment owned by the caller. The post a
// comment belongs to never changes.
func (s *CommentService) Update(ctx context.Context, identity *model.Identity, id int64, input model.CommentInput, partial bool) (model.Comment, error) {
	current, err := s.ownedComment(ctx, identity, id, http.MethodPut)
	if err != nil {
		return model.Comment{}, err
	}

	if partial && input.Content == nil {
		return current, nil
	}

	fields := apierror.FieldErrors{}
	content := requiredText(input.Content, "content", 0, fields)
	if err := fields.Err(); err != nil {
		return model.Comment{}, err
	}

	current.Content = content
	return s.comments.Update(ctx, current)
}

func (s *CommentService) Delete(ctx context.Context, identity *model.Identity, id int64) error {
	if _, err := s.ownedComment(ctx, identity, id, http.MethodDelete); err != nil {
		return err
	}
	return s.comments.Delete(ctx, id)
}

func (s *CommentService) ownedComment(ctx context.Context, identity *model.Identity, id int64, method string) (model.Comment, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}
	if err := permission.CheckOwner(identity, method, comment.AuthorID); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}
