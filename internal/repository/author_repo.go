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

var authorOrdering = map[string]string{
	"name":        "a.name",
	"books_count": "books_count",
	"created_at":  "a.created_at",
}

type AuthorRepository struct {
	pool *pgxpool.Pool
}

func NewAuthorRepository(pool *pgxpool.Pool) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

func (r *AuthorRepository) List(ctx context.Context, query model.AuthorQuery) ([]model.Author, int, error) {
	where := &whereBuilder{}
	if search := strings.TrimSpace(query.Search); search != "" {
		where.add(`a.name ILIKE $%d`, likePattern(search))
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM authors a `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}

	limitIdx := where.nextArg()
	args := append(where.args, query.PageSize, (query.Page-1)*query.PageSize)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT a.id, a.name, a.created_at, COUNT(b.id) AS books_count
		 FROM authors a
		 LEFT JOIN books b ON b.author_id = a.id
		 %s
		 GROUP BY a.id
		 ORDER BY %s, a.id
		 LIMIT $%d OFFSET $%d`,
		where.sql(), orderBy(query.Ordering, authorOrdering, "a.name ASC"), limitIdx, limitIdx+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	authors := make([]model.Author, 0)
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.BooksCount); err != nil {
			return nil, 0, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, total, rows.Err()
}

func (r *AuthorRepository) FindByID(ctx context.Context, id int64) (model.Author, error) {
	var a model.Author
	err := r.pool.QueryRow(ctx,
		`SELECT a.id, a.name, a.created_at,
		        (SELECT COUNT(*) FROM books b WHERE b.author_id = a.id)
		 FROM authors a WHERE a.id = $1`, id).
		Scan(&a.ID, &a.Name, &a.CreatedAt, &a.BooksCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Author{}, model.ErrAuthorNotFound
	}
	if err != nil {
		return model.Author{}, fmt.Errorf("find author: %w", err)
	}
	return a, nil
}

func (r *AuthorRepository) Create(ctx context.Context, name string) (model.Author, error) {
	a := model.Author{Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO authors (name) VALUES ($1) RETURNING id, created_at`, name).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return model.Author{}, translateWriteError("create author", err)
	}
	return a, nil
}

func (r *AuthorRepository) Update(ctx context.Context, id int64, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE authors SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return translateWriteError("update author", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAuthorNotFound
	}
	return nil
}

// Delete removes the author and, through the foreign key, all of its books.
func (r *AuthorRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAuthorNotFound
	}
	return nil
}
