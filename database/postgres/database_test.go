package postgres_test

import (
	"context"
	"testing"

	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), slotbox.Tables{Uploads: "uploads"})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = db.Ping(ctx)
	assert.NoError(t, err, "ping should succeed after connect")
}

func TestDatabase_Migrate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	dsn := getDSN(pool)
	ctx := context.Background()

	t.Run("success - creates tables", func(t *testing.T) {
		tableName := "migrate_test_" + getRandomString(t)
		db, err := postgres.Connect(ctx, dsn, slotbox.Tables{Uploads: tableName})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx), "migrate should succeed")

		_, err = db.GetRepo().List(ctx, slotbox.ListQuery{Limit: 1})
		assert.NoError(t, err, "repo should work after migration")
	})

	t.Run("idempotent - can run multiple times", func(t *testing.T) {
		tableName := "migrate_idem_" + getRandomString(t)
		db, err := postgres.Connect(ctx, dsn, slotbox.Tables{Uploads: tableName})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		assert.NoError(t, db.Migrate(ctx), "first migrate should succeed")
		assert.NoError(t, db.Migrate(ctx), "second migrate should succeed")
	})
}

func TestDatabase_Validate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	dsn := getDSN(pool)
	ctx := context.Background()

	t.Run("success - after migration", func(t *testing.T) {
		tableName := "validate_ok_" + getRandomString(t)
		db, err := postgres.Connect(ctx, dsn, slotbox.Tables{Uploads: tableName})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx))
	})

	t.Run("error - table missing", func(t *testing.T) {
		db, err := postgres.Connect(ctx, dsn, slotbox.Tables{Uploads: "nonexistent_table"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.Error(t, db.Validate(ctx))
	})
}

func TestValidateSchema(t *testing.T) {
	pool, cleanup := getIsolatedTestDatabase(t)
	defer cleanup()
	defer pool.Close()

	ctx := context.Background()

	t.Run("error - incomplete schema", func(t *testing.T) {
		_, err := pool.Exec(ctx, `CREATE TABLE incomplete_uploads (id UUID PRIMARY KEY, name TEXT NOT NULL)`)
		require.NoError(t, err)

		err = postgres.ValidateSchema(ctx, pool, slotbox.Tables{Uploads: "incomplete_uploads"})
		assert.Error(t, err)
	})

	t.Run("error - wrong column types", func(t *testing.T) {
		_, err := pool.Exec(ctx, `
			CREATE TABLE wrong_type_uploads (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				content_type TEXT NOT NULL,
				etag TEXT NOT NULL,
				size_bytes TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)
		`)
		require.NoError(t, err)

		err = postgres.ValidateSchema(ctx, pool, slotbox.Tables{Uploads: "wrong_type_uploads"})
		assert.Error(t, err)
	})

	t.Run("error - wrong nullable constraints", func(t *testing.T) {
		_, err := pool.Exec(ctx, `
			CREATE TABLE wrong_nullable_uploads (
				id UUID PRIMARY KEY,
				name TEXT,
				content_type TEXT NOT NULL,
				etag TEXT NOT NULL,
				size_bytes BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)
		`)
		require.NoError(t, err)

		err = postgres.ValidateSchema(ctx, pool, slotbox.Tables{Uploads: "wrong_nullable_uploads"})
		assert.Error(t, err)
	})

	t.Run("drop tables", func(t *testing.T) {
		tables := slotbox.Tables{Uploads: "dropped_uploads"}
		require.NoError(t, postgres.Migrate(ctx, pool, tables))
		require.NoError(t, postgres.ValidateSchema(ctx, pool, tables))

		require.NoError(t, postgres.DropTables(ctx, pool, tables))
		assert.Error(t, postgres.ValidateSchema(ctx, pool, tables))
	})
}
