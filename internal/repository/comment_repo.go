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

const commentSelect = `SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at, c.updated_at
	FROM comments c JOIN users u ON u.id = c.author_id`

var commentOrdering = map[string]string{
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
}

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CommentRepository) List(ctx context.Context, query model.CommentQuery) ([]model.Comment, int, error) {
	where := &whereBuilder{}
	if query.PostID != nil {
		where.add(`c.post_id = $%d`, *query.PostID)
	}
	if query.AuthorID != nil {
		where.add(`c.author_id = $%d`, *query.AuthorID)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		where.add(`c.content ILIKE $%d`, likePattern(search))
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments c `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	limitIdx := where.nextArg()
	args := append(where.args, query.PageSize, (query.Page-1)*query.PageSize)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`%s %s ORDER BY %s, c.id LIMIT $%d OFFSET $%d`,
		commentSelect, where.sql(), orderBy(query.Ordering, commentOrdering, "c.created_at ASC"), limitIdx, limitIdx+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments, err := collectComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post comments: %w", err)
	}
	defer rows.Close()

	return collectComments(rows)
}

func collectComments(rows pgx.Rows) ([]model.Comment, error) {
	comments := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (model.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Comment{}, model.ErrCommentNotFound
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

func (r *CommentRepository) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO comments (post_id, author_id, content) VALUES ($1, $2, $3) RETURNING id`,
		c.PostID, c.AuthorID, c.Content).Scan(&id)
	if err != nil {
		return model.Comment{}, translateWriteError("create comment", err)
	}
	return r.FindByID(ctx, id)
}

func (r *CommentRepository) Update(ctx context.Context, c model.Comment) (model.Comment, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE comments SET content = $2, updated_at = now() WHERE id = $1`, c.ID, c.Content)
	if err != nil {
		return model.Comment{}, translateWriteError("update comment", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Comment{}, model.ErrCommentNotFound
	}
	return r.FindByID(ctx, c.ID)
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}
