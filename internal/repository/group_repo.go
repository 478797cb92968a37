package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-bookshelf-api/internal/model"
)

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.id, g.name,
		        COALESCE(array_agg(p.codename ORDER BY p.codename) FILTER (WHERE p.codename IS NOT NULL), '{}')
		 FROM auth_groups g
		 LEFT JOIN group_permissions gp ON gp.group_id = g.id
		 LEFT JOIN auth_permissions p ON p.id = gp.permission_id
		 GROUP BY g.id, g.name
		 ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]model.Group, 0)
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Permissions); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepository) GroupsForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.name FROM user_groups ug
		 JOIN auth_groups g ON g.id = ug.group_id
		 WHERE ug.user_id = $1
		 ORDER BY g.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan group name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// PermissionsForUser returns the distinct permission codenames granted
// through the user's groups.
func (r *GroupRepository) PermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT p.codename
		 FROM user_groups ug
		 JOIN group_permissions gp ON gp.group_id = ug.group_id
		 JOIN auth_permissions p ON p.id = gp.permission_id
		 WHERE ug.user_id = $1
		 ORDER BY p.codename`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user permissions: %w", err)
	}
	defer rows.Close()

	codenames := make([]string, 0)
	for rows.Next() {
		var codename string
		if err := rows.Scan(&codename); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		codenames = append(codenames, codename)
	}
	return codenames, rows.Err()
}

func (r *GroupRepository) AddUserToGroup(ctx context.Context, userID int64, groupName string) error {
	var groupID int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM auth_groups WHERE name = $1`, groupName).Scan(&groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("find group: %w", err)
	}

	if _, err := r.pool.Exec(ctx,
		`INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, groupID); err != nil {
		return translateWriteError("add user to group", err)
	}
	return nil
}

// SetUserGroups replaces the user's memberships with exactly groupNames.
func (r *GroupRepository) SetUserGroups(ctx context.Context, userID int64, groupNames []string) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var found int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM auth_groups WHERE name = ANY($1)`, groupNames).Scan(&found); err != nil {
			return fmt.Errorf("resolve groups: %w", err)
		}
		if found != len(groupNames) {
			return model.ErrGroupNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM user_groups WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear user groups: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO user_groups (user_id, group_id)
			 SELECT $1, id FROM auth_groups WHERE name = ANY($2)`, userID, groupNames); err != nil {
			return translateWriteError("assign user groups", err)
		}
		return nil
	})
}
