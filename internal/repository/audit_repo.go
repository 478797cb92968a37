package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-bookshelf-api/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	before, err := encodeSnapshot(entry.Before)
	if err != nil {
		return fmt.Errorf("encode before snapshot: %w", err)
	}
	after, err := encodeSnapshot(entry.After)
	if err != nil {
		return fmt.Errorf("encode after snapshot: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_entries (action, occurred_at, actor_user_id, actor_username, actor_ip,
		                           status, resource, before_data, after_data, error_text)
		VALUES ($1, $2, NULLIF($3::bigint, 0), $4, $5, $6, $7, $8, $9, $10)`,
		entry.Action, entry.OccurredAt, entry.Actor.UserID, entry.Actor.Username, entry.Actor.IP,
		entry.Status, entry.Resource, before, after, entry.Error)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query.Page, query.PageSize = model.NormalizePage(query.Page, query.PageSize, 50)

	where := &whereBuilder{}
	if action := strings.TrimSpace(query.Action); action != "" {
		where.add("lower(action) = lower($%d)", action)
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		where.add("actor_user_id::text = $%d", actorID)
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		where.add("lower(status) = lower($%d)", status)
	}
	if resource := strings.TrimSpace(query.Resource); resource != "" {
		where.add("resource ILIKE $%d", likePattern(resource))
	}
	if from := strings.TrimSpace(query.From); from != "" {
		where.add("occurred_at >= $%d::timestamptz", from)
	}
	if to := strings.TrimSpace(query.To); to != "" {
		where.add("occurred_at <= $%d::timestamptz", to)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries "+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	next := where.nextArg()
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT action, occurred_at, COALESCE(actor_user_id, 0), actor_username, actor_ip,
		       status, resource, before_data, after_data, error_text
		FROM audit_entries %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where.sql(), next, next+1),
		append(where.args, query.PageSize, (query.Page-1)*query.PageSize)...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("scan audit entries: %w", err)
	}
	return entries, model.NewMeta(query.Page, query.PageSize, total), nil
}

func scanAuditEntry(row pgx.CollectableRow) (model.AuditEntry, error) {
	var (
		e             model.AuditEntry
		occurredAt    time.Time
		before, after []byte
	)
	err := row.Scan(&e.Action, &occurredAt, &e.Actor.UserID, &e.Actor.Username, &e.Actor.IP,
		&e.Status, &e.Resource, &before, &after, &e.Error)
	if err != nil {
		return model.AuditEntry{}, err
	}

	e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
	e.Before = decodeSnapshot(before)
	e.After = decodeSnapshot(after)
	return e, nil
}

// encodeSnapshot stores nil as SQL NULL rather than the JSON literal null.
func encodeSnapshot(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func decodeSnapshot(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}
