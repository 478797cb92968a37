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

const bookColumns = `b.id, b.title, b.publication_year, b.author_id, a.name, b.created_at, b.updated_at`

var bookOrdering = map[string]string{
	"title":            "lower(b.title)",
	"publication_year": "b.publication_year",
}

const defaultBookOrdering = "b.publication_year DESC, lower(b.title) ASC"

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func scanBook(row pgx.Row) (model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.AuthorID, &b.AuthorName, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *BookRepository) List(ctx context.Context, query model.BookQuery) ([]model.Book, int, error) {
	where := &whereBuilder{}
	if query.PublicationYear != nil {
		where.add(`b.publication_year = $%d`, *query.PublicationYear)
	}
	if query.AuthorID != nil {
		where.add(`b.author_id = $%d`, *query.AuthorID)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		where.addRepeat(`(b.title ILIKE $%d OR a.name ILIKE $%d)`, 2, likePattern(search))
	}

	from := `FROM books b JOIN authors a ON a.id = b.author_id ` + where.sql()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+from, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	limitIdx := where.nextArg()
	args := append(where.args, query.PageSize, (query.Page-1)*query.PageSize)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s %s ORDER BY %s, b.id LIMIT $%d OFFSET $%d`,
		bookColumns, from, orderBy(query.Ordering, bookOrdering, defaultBookOrdering), limitIdx, limitIdx+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, total, rows.Err()
}

func (r *BookRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.Book, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookColumns+`
		 FROM books b JOIN authors a ON a.id = b.author_id
		 WHERE b.author_id = $1
		 ORDER BY `+defaultBookOrdering+`, b.id`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list author books: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (model.Book, error) {
	b, err := scanBook(r.pool.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books b JOIN authors a ON a.id = b.author_id WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Book{}, model.ErrBookNotFound
	}
	if err != nil {
		return model.Book{}, fmt.Errorf("find book: %w", err)
	}
	return b, nil
}

// ExistsDuplicate reports whether another book shares the case-insensitive
// title, author and publication year. excludeID skips the record being updated.
func (r *BookRepository) ExistsDuplicate(ctx context.Context, title string, authorID int64, year int, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
		     SELECT 1 FROM books
		     WHERE lower(title) = lower($1) AND author_id = $2 AND publication_year = $3 AND id <> $4
		 )`, title, authorID, year, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate book: %w", err)
	}
	return exists, nil
}

func (r *BookRepository) Create(ctx context.Context, b model.Book) (model.Book, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO books (title, publication_year, author_id) VALUES ($1, $2, $3) RETURNING id`,
		b.Title, b.PublicationYear, b.AuthorID).Scan(&id)
	if err != nil {
		return model.Book{}, translateWriteError("create book", err)
	}
	return r.FindByID(ctx, id)
}

func (r *BookRepository) Update(ctx context.Context, b model.Book) (model.Book, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE books SET title = $2, publication_year = $3, author_id = $4, updated_at = now()
		 WHERE id = $1`,
		b.ID, b.Title, b.PublicationYear, b.AuthorID)
	if err != nil {
		return model.Book{}, translateWriteError("update book", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Book{}, model.ErrBookNotFound
	}
	return r.FindByID(ctx, b.ID)
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}
