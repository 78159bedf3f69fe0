// Package sqlite implements the upload ledger on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/database/internal"
)

// timeFormat is fixed width so that timestamps stored as TEXT sort
// chronologically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, name, content_type, etag, size_bytes, created_at, updated_at`

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns an UploadLedger over an already migrated database.
func NewRepo(db *sql.DB, tables slotbox.Tables) (slotbox.UploadLedger, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &repo{db: db, tableName: tables.Uploads}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (slotbox.Upload, error) {
	var u slotbox.Upload
	var idStr, createdAt, updatedAt string

	if err := row.Scan(&idStr, &u.Name, &u.ContentType, &u.Etag, &u.SizeBytes, &createdAt, &updatedAt); err != nil {
		return slotbox.Upload{}, err
	}

	var err error
	u.ID, err = uuid.Parse(idStr)
	if err != nil {
		return slotbox.Upload{}, fmt.Errorf("parse uuid: %w", err)
	}

	u.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return slotbox.Upload{}, fmt.Errorf("parse created_at: %w", err)
	}

	u.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return slotbox.Upload{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return u, nil
}

func (r *repo) Get(ctx context.Context, name string) (slotbox.Upload, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE name = ?`, selectColumns, quoteIdentifier(r.tableName))

	u, err := scanUpload(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return slotbox.Upload{}, slotbox.ErrNotFound
		}
		return slotbox.Upload{}, fmt.Errorf("get: %w", err)
	}

	return u, nil
}

func (r *repo) Upsert(ctx context.Context, entry slotbox.LedgerEntry) (slotbox.Upload, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return slotbox.Upload{}, false, fmt.Errorf("upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := quoteIdentifier(r.tableName)
	now := formatTime(time.Now())

	var existingID string
	checkQuery := fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, table) //nolint:gosec // table name is validated
	err = tx.QueryRowContext(ctx, checkQuery, entry.Name).Scan(&existingID)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return slotbox.Upload{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	if isInsert {
		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, name, content_type, etag, size_bytes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, table)

		_, err = tx.ExecContext(ctx, insertQuery,
			uuid.New().String(), entry.Name, entry.ContentType, entry.ETag, entry.Size, now, now,
		)
		if err != nil {
			return slotbox.Upload{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET content_type = ?, etag = ?, size_bytes = ?, updated_at = ?
			WHERE name = ?`, table)

		_, err = tx.ExecContext(ctx, updateQuery,
			entry.ContentType, entry.ETag, entry.Size, now, entry.Name,
		)
		if err != nil {
			return slotbox.Upload{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	selectQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE name = ?`, selectColumns, table) //nolint:gosec // table name is validated
	u, err := scanUpload(tx.QueryRowContext(ctx, selectQuery, entry.Name))
	if err != nil {
		return slotbox.Upload{}, false, fmt.Errorf("upsert: read back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return slotbox.Upload{}, false, fmt.Errorf("upsert: commit: %w", err)
	}

	return u, isInsert, nil
}

func (r *repo) List(ctx context.Context, q slotbox.ListQuery) (slotbox.ListResult, error) {
	if q.Limit <= 0 {
		return slotbox.ListResult{}, fmt.Errorf("list: %w: limit must be positive", slotbox.ErrInvalidInput)
	}

	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return slotbox.ListResult{}, fmt.Errorf("list: %w: %w", slotbox.ErrInvalidInput, err)
	}

	escapedPrefix := internal.EscapeLikePattern(q.NamePrefix)
	table := quoteIdentifier(r.tableName)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE name LIKE ? || '%%' ESCAPE '\'
			ORDER BY created_at, name
			LIMIT ?
		`, selectColumns, table)
		args = []any{escapedPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE name LIKE ? || '%%' ESCAPE '\' AND (created_at, name) > (?, ?)
			ORDER BY created_at, name
			LIMIT ?
		`, selectColumns, table)
		args = []any{escapedPrefix, formatTime(cursor.CreatedAt), cursor.Name, q.Limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return slotbox.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]slotbox.Upload, 0, q.Limit)
	for rows.Next() {
		u, scanErr := scanUpload(rows)
		if scanErr != nil {
			return slotbox.ListResult{}, fmt.Errorf("list: scan: %w", scanErr)
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
