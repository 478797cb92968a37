package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-bookshelf-api/internal/model"
)

const userColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.bio, u.profile_picture, u.date_of_birth, u.is_active, u.is_staff, u.is_superuser,
	u.date_joined, u.last_login, u.updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Bio, &u.ProfilePicture, &u.DateOfBirth, &u.IsActive, &u.IsStaff, &u.IsSuperuser,
		&u.DateJoined, &u.LastLogin, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE lower(u.username) = lower($1)`,
		strings.TrimSpace(username)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email <> '' AND lower(email) = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, bio,
		                    date_of_birth, is_active, is_staff, is_superuser)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, date_joined, updated_at`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Bio,
		u.DateOfBirth, u.IsActive, u.IsStaff, u.IsSuperuser).
		Scan(&u.ID, &u.DateJoined, &u.UpdatedAt)
	if err != nil {
		return model.User{}, translateWriteError("create user", err)
	}
	return u, nil
}

// CreateWithToken inserts the user and its API token in one transaction, so
// a registration never leaves a user behind without a token.
func (r *UserRepository) CreateWithToken(ctx context.Context, u model.User, tokenKey string) (model.User, model.Token, error) {
	var token model.Token
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash, first_name, last_name, bio,
			                    date_of_birth, is_active, is_staff, is_superuser)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id, date_joined, updated_at`,
			u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Bio,
			u.DateOfBirth, u.IsActive, u.IsStaff, u.IsSuperuser).
			Scan(&u.ID, &u.DateJoined, &u.UpdatedAt)
		if err != nil {
			return translateWriteError("create user", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO auth_tokens (key, user_id) VALUES ($1, $2)
			 RETURNING key, user_id, created_at`, tokenKey, u.ID).
			Scan(&token.Key, &token.UserID, &token.CreatedAt)
		if err != nil {
			return translateWriteError("create token", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, model.Token{}, err
	}
	return u, token, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u model.User) (model.User, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET first_name = $2, last_name = $3, bio = $4, date_of_birth = $5,
		     profile_picture = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		u.ID, u.FirstName, u.LastName, u.Bio, u.DateOfBirth, u.ProfilePicture).Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, translateWriteError("update user profile", err)
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, query model.UserListQuery) ([]model.User, int, error) {
	where := &whereBuilder{}
	if search := strings.TrimSpace(query.Search); search != "" {
		where.addRepeat(`(u.username ILIKE $%d OR u.email ILIKE $%d)`, 2, likePattern(search))
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users u `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limitIdx := where.nextArg()
	args := append(where.args, query.PageSize, (query.Page-1)*query.PageSize)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT `+userColumns+` FROM users u %s ORDER BY lower(u.username) LIMIT $%d OFFSET $%d`,
		where.sql(), limitIdx, limitIdx+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
