package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LikeRepository struct {
	pool *pgxpool.Pool
}

func NewLikeRepository(pool *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

// Create records a like and reports whether a new row was inserted.
func (r *LikeRepository) Create(ctx context.Context, postID int64, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID, userID)
	if err != nil {
		return false, translateWriteError("create like", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LikeRepository) Delete(ctx context.Context, postID int64, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LikeRepository) CountForPost(ctx context.Context, postID int64) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

type FollowRepository struct {
	pool *pgxpool.Pool
}

func NewFollowRepository(pool *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{pool: pool}
}

// Follow reports whether a new follow edge was created.
func (r *FollowRepository) Follow(ctx context.Context, followerID int64, followeeID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		followerID, followeeID)
	if err != nil {
		return false, translateWriteError("follow user", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *FollowRepository) Unfollow(ctx context.Context, followerID int64, followeeID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("unfollow user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID int64, followeeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`,
		followerID, followeeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

func (r *FollowRepository) Counts(ctx context.Context, userID int64) (int, int, error) {
	var followers, following int
	err := r.pool.QueryRow(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM follows WHERE followee_id = $1),
		     (SELECT COUNT(*) FROM follows WHERE follower_id = $1)`, userID).
		Scan(&followers, &following)
	if err != nil {
		return 0, 0, fmt.Errorf("count follows: %w", err)
	}
	return followers, following, nil
}
