package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-bookshelf-api/internal/model"
)

// postSelect expects the viewer id as $1 so is_liked can be computed inline.
const postSelect = `SELECT p.id, p.author_id, u.username, p.title, p.slug, p.content,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes_count,
	EXISTS(SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $1) AS is_liked,
	p.created_at, p.updated_at
	FROM posts p JOIN users u ON u.id = p.author_id`

var postOrdering = map[string]string{
	"created_at": "p.created_at",
	"updated_at": "p.updated_at",
	"title":      "lower(p.title)",
}

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func scanPost(row pgx.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Title, &p.Slug, &p.Content,
		&p.CommentsCount, &p.LikesCount, &p.IsLiked, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func applyPostFilters(where *whereBuilder, query model.PostQuery) {
	if query.AuthorID != nil {
		where.add(`p.author_id = $%d`, *query.AuthorID)
	}
	if query.FollowedBy > 0 {
		where.add(`p.author_id IN (SELECT followee_id FROM follows WHERE follower_id = $%d)`, query.FollowedBy)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		where.addRepeat(`(p.title ILIKE $%d OR p.content ILIKE $%d)`, 2, likePattern(search))
	}
}

func (r *PostRepository) List(ctx context.Context, query model.PostQuery) ([]model.Post, int, error) {
	countWhere := &whereBuilder{}
	applyPostFilters(countWhere, query)

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts p `+countWhere.sql(), countWhere.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	// $1 is reserved for the viewer id referenced by postSelect.
	where := &whereBuilder{args: []any{query.ViewerID}}
	applyPostFilters(where, query)

	limitIdx := where.nextArg()
	args := append(where.args, query.PageSize, (query.Page-1)*query.PageSize)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`%s %s ORDER BY %s, p.id DESC LIMIT $%d OFFSET $%d`,
		postSelect, where.sql(), orderBy(query.Ordering, postOrdering, "p.created_at DESC"), limitIdx, limitIdx+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

func (r *PostRepository) FindByID(ctx context.Context, id int64, viewerID int64) (model.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, postSelect+` WHERE p.id = $2`, viewerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrPostNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, p model.Post) (model.Post, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO posts (author_id, title, slug, content) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.AuthorID, p.Title, p.Slug, p.Content).Scan(&id)
	if err != nil {
		return model.Post{}, translateWriteError("create post", err)
	}
	return r.FindByID(ctx, id, p.AuthorID)
}

func (r *PostRepository) Update(ctx context.Context, p model.Post) (model.Post, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET title = $2, slug = $3, content = $4, updated_at = now() WHERE id = $1`,
		p.ID, p.Title, p.Slug, p.Content)
	if err != nil {
		return model.Post{}, translateWriteError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Post{}, model.ErrPostNotFound
	}
	return r.FindByID(ctx, p.ID, p.AuthorID)
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}
	return nil
}
