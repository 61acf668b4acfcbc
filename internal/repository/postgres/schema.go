package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, prefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			parent_id UUID REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			is_folder BOOLEAN NOT NULL DEFAULT FALSE,
			linked_property TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			file_type TEXT NOT NULL DEFAULT '',
			owner TEXT NOT NULL DEFAULT '',
			value DOUBLE PRECISION NOT NULL DEFAULT 0,
			size BIGINT NOT NULL DEFAULT 0,
			date_added TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			date_modified TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Comments + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			parent_id UUID REFERENCES ` + tables.Comments + `(id) ON DELETE CASCADE,
			author TEXT NOT NULL,
			author_name TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			annotation JSONB,
			mentions TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Live sibling names are unique; trashed nodes do not block a name.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + prefix + `nodes_sibling_name ON ` + tables.Nodes +
			`(COALESCE(parent_id, '00000000-0000-0000-0000-000000000000'::uuid), name) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `nodes_parent ON ` + tables.Nodes + `(parent_id) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `nodes_trash ON ` + tables.Nodes + `(deleted_at) WHERE deleted_at IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `comments_document ON ` + tables.Comments + `(document_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table, comments first to respect foreign keys.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Comments, tables.Users, tables.Nodes} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearData removes all rows but keeps the schema.
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	_, err := pool.Exec(ctx, "TRUNCATE "+tables.Comments+", "+tables.Nodes+", "+tables.Users)
	if err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	return nil
}
