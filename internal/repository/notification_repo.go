package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-bookshelf-api/internal/model"
)

const notificationSelect = `SELECT n.id, n.recipient_id, n.actor_id, u.username, n.verb, n.target_type,
	n.target_id, n.metadata, n.is_read, n.timestamp
	FROM notifications n JOIN users u ON u.id = n.actor_id`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func scanNotification(row pgx.Row) (model.Notification, error) {
	var n model.Notification
	var metadata []byte
	if err := row.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.ActorUsername, &n.Verb, &n.TargetType,
		&n.TargetID, &metadata, &n.IsRead, &n.Timestamp); err != nil {
		return model.Notification{}, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return model.Notification{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	var metadata []byte
	if len(n.Metadata) > 0 {
		encoded, err := json.Marshal(n.Metadata)
		if err != nil {
			return model.Notification{}, fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = encoded
	}

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (recipient_id, actor_id, verb, target_type, target_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		n.RecipientID, n.ActorID, n.Verb, n.TargetType, n.TargetID, metadata).Scan(&id)
	if err != nil {
		return model.Notification{}, translateWriteError("create notification", err)
	}

	created, err := scanNotification(r.pool.QueryRow(ctx, notificationSelect+` WHERE n.id = $1`, id))
	if err != nil {
		return model.Notification{}, fmt.Errorf("load notification: %w", err)
	}
	return created, nil
}

// List orders unread notifications first, newest first within each group.
func (r *NotificationRepository) List(ctx context.Context, query model.NotificationQuery) ([]model.Notification, int, error) {
	where := &whereBuilder{}
	where.add(`n.recipient_id = $%d`, query.RecipientID)
	if query.UnreadOnly {
		where.clauses = append(where.clauses, `n.is_read = FALSE`)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications n `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	limitIdx := where.nextArg()
	args := append(where.args, query.PageSize, (query.Page-1)*query.PageSize)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`%s %s ORDER BY n.is_read ASC, n.timestamp DESC, n.id DESC LIMIT $%d OFFSET $%d`,
		notificationSelect, where.sql(), limitIdx, limitIdx+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead only touches notifications owned by recipientID; anything else
// is reported as not found.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, recipientID int64) (model.Notification, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return model.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Notification{}, model.ErrNotificationNotFound
	}

	n, err := scanNotification(r.pool.QueryRow(ctx, notificationSelect+` WHERE n.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Notification{}, model.ErrNotificationNotFound
	}
	if err != nil {
		return model.Notification{}, fmt.Errorf("load notification: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}
