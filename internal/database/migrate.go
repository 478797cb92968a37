package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_initial.up.sql
var initialMigrationSQL string

//go:embed migrations/002_social.up.sql
var socialMigrationSQL string

type migration struct {
	name   string
	sql    string
	tables []string
}

var migrations = []migration{
	{
		name: "001_initial",
		sql:  initialMigrationSQL,
		tables: []string{
			"users",
			"auth_tokens",
			"auth_permissions",
			"auth_groups",
			"group_permissions",
			"user_groups",
			"authors",
			"books",
			"audit_entries",
		},
	},
	{
		name:   "002_social",
		sql:    socialMigrationSQL,
		tables: []string{"follows", "posts", "comments", "likes", "notifications"},
	},
}

// EnsureSchema applies every migration whose tables are not all present.
// The SQL is written with IF NOT EXISTS / ON CONFLICT so re-running is safe.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	for _, m := range migrations {
		exists, err := db.hasTables(ctx, m.tables)
		if err != nil {
			return fmt.Errorf("check tables for %s: %w", m.name, err)
		}
		if exists {
			continue
		}

		slog.Info("applying migration", "name", m.name)
		if _, err := db.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}

		exists, err = db.hasTables(ctx, m.tables)
		if err != nil {
			return fmt.Errorf("re-check tables after %s: %w", m.name, err)
		}
		if !exists {
			return fmt.Errorf("schema initialization incomplete: %s tables are still missing", m.name)
		}
	}

	slog.Info("database schema ensured")
	return nil
}

func (db *DB) hasTables(ctx context.Context, tables []string) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_name = ANY($1)
	`, tables).Scan(&count)
	if err != nil {
		return false, err
	}

	return count == len(tables), nil
}
