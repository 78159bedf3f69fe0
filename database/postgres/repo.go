// Package postgres implements the upload ledger on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/database/internal"
)

const selectColumns = `id, name, content_type, etag, size_bytes, created_at, updated_at`

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables slotbox.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.Uploads}, nil
}

func (r *Repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *Repo) Get(ctx context.Context, name string) (slotbox.Upload, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE name = $1
	`, selectColumns, r.table())

	var u slotbox.Upload
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&u.ID, &u.Name, &u.ContentType, &u.Etag, &u.SizeBytes, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return slotbox.Upload{}, slotbox.ErrNotFound
		}
		return slotbox.Upload{}, fmt.Errorf("get: %w", err)
	}

	return u, nil
}

func (r *Repo) Upsert(ctx context.Context, entry slotbox.LedgerEntry) (slotbox.Upload, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, content_type, etag, size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			size_bytes = EXCLUDED.size_bytes,
			updated_at = NOW()
		RETURNING %s,
			(xmax = 0) AS inserted
	`, r.table(), selectColumns)

	var u slotbox.Upload
	var inserted bool

	err := r.pool.QueryRow(ctx, query, entry.Name, entry.ContentType, entry.ETag, entry.Size).Scan(
		&u.ID, &u.Name, &u.ContentType, &u.Etag, &u.SizeBytes, &u.CreatedAt, &u.UpdatedAt, &inserted,
	)
	if err != nil {
		return slotbox.Upload{}, false, fmt.Errorf("upsert: %w", err)
	}

	return u, inserted, nil
}

func (r *Repo) List(ctx context.Context, q slotbox.ListQuery) (slotbox.ListResult, error) {
	if q.Limit <= 0 {
		return slotbox.ListResult{}, fmt.Errorf("list: %w: limit must be positive", slotbox.ErrInvalidInput)
	}

	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return slotbox.ListResult{}, fmt.Errorf("list: %w: %w", slotbox.ErrInvalidInput, err)
	}

	escapedPrefix := internal.EscapeLikePattern(q.NamePrefix)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE name LIKE $1 || '%%' ESCAPE '\'
			ORDER BY created_at, name
			LIMIT $2
		`, selectColumns, r.table())
		args = []any{escapedPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE name LIKE $1 || '%%' ESCAPE '\' AND (created_at, name) > ($2, $3)
			ORDER BY created_at, name
			LIMIT $4
		`, selectColumns, r.table())
		args = []any{escapedPrefix, cursor.CreatedAt, cursor.Name, q.Limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return slotbox.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]slotbox.Upload, 0, q.Limit)
	for rows.Next() {
		var u slotbox.Upload
		if err := rows.Scan(&u.ID, &u.Name, &u.ContentType, &u.Etag, &u.SizeBytes, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return slotbox.ListResult{}, fmt.Errorf("list: scan: %w", err)
		}
		items = append(items, u)
	}

	if err := rows.Err(); err != nil {
		return slotbox.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = internal.EncodeCursor(lastItem.CreatedAt, lastItem.Name)
		items = items[:q.Limit]
	}

	return slotbox.ListResult{Items: items, NextCursor: nextCursor}, nil
}
