package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-bookshelf-api/internal/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translateWriteError maps constraint violations onto model.ConstraintError
// and wraps everything else with the operation name.
func translateWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, &model.ConstraintError{Constraint: pgErr.ConstraintName, Unique: true, Err: err})
		case pgForeignKeyViolation, pgCheckViolation:
			return fmt.Errorf("%s: %w", op, &model.ConstraintError{Constraint: pgErr.ConstraintName, Err: err})
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// whereBuilder collects positional predicates for dynamic list queries.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, value any) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

// addRepeat appends a predicate that references the same argument several times.
func (w *whereBuilder) addRepeat(clause string, times int, value any) {
	w.args = append(w.args, value)
	idx := make([]any, times)
	for i := range idx {
		idx[i] = len(w.args)
	}
	w.clauses = append(w.clauses, fmt.Sprintf(clause, idx...))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

// nextArg returns the placeholder index for the next positional argument.
func (w *whereBuilder) nextArg() int {
	return len(w.args) + 1
}

// orderBy resolves a comma separated ordering parameter against an allow-list.
// Unknown fields are ignored; fallback is used when nothing valid remains.
func orderBy(raw string, allowed map[string]string, fallback string) string {
	parts := make([]string, 0, 2)
	seen := map[string]struct{}{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		desc := strings.HasPrefix(field, "-")
		name := strings.TrimPrefix(field, "-")
		column, ok := allowed[name]
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if desc {
			parts = append(parts, column+" DESC")
		} else {
			parts = append(parts, column+" ASC")
		}
	}

	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(term)) + "%"
}
