package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-bookshelf-api/internal/model"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// GetOrCreate returns the user's token, inserting one with newKey if none
// exists. The unique user_id column keeps this to one token per user even
// under concurrent logins.
func (r *TokenRepository) GetOrCreate(ctx context.Context, userID int64, newKey string) (model.Token, error) {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO auth_tokens (key, user_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`, newKey, userID); err != nil {
		return model.Token{}, translateWriteError("create token", err)
	}

	var t model.Token
	err := r.pool.QueryRow(ctx,
		`SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`, userID).
		Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Token{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.Token{}, fmt.Errorf("load token: %w", err)
	}
	return t, nil
}

// FindUserByKey resolves a token key to its owning user.
func (r *TokenRepository) FindUserByKey(ctx context.Context, key string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM auth_tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find token owner: %w", err)
	}
	return u, nil
}

func (r *TokenRepository) DeleteByKey(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) DeleteForUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}
