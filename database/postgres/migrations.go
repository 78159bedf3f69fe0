package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/slotbox"
)

// Migrate creates the ledger tables and indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables slotbox.Tables) error {
	if err := createUploadsTable(ctx, pool, tables.Uploads); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Uploads, err)
	}
	return nil
}

// DropTables removes every ledger table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables slotbox.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tables.Uploads}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Uploads, err)
	}
	return nil
}

func createUploadsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexList := pgx.Identifier{fmt.Sprintf("idx_%s_list", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at, name);
	`,
		quotedTable,
		indexList, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create uploads table: %w", err)
	}
	return nil
}
