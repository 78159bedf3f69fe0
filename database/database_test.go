package database_test

import (
	"context"
	"testing"

	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: slotbox.Tables{Uploads: tableName},
	}
}

func setupTestDB(t *testing.T, tableName string) database.Database {
	t.Helper()

	db, err := database.Connect(context.Background(), newTestConfig(tableName))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func setupTestDBWithMigration(t *testing.T, tableName string) database.Database {
	t.Helper()

	db := setupTestDB(t, tableName)
	require.NoError(t, db.Migrate(context.Background()))

	return db
}

func TestConnect_SQLite(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t, "uploads")

	assert.NoError(t, db.Ping(context.Background()))
}

func TestConnect_UnsupportedType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, typ := range []string{"", "mysql"} {
		cfg := database.Config{
			Type:   typ,
			DSN:    ":memory:",
			Tables: slotbox.Tables{Uploads: "uploads"},
		}

		_, err := database.Connect(ctx, cfg)
		require.Error(t, err, "type %q", typ)
		assert.Contains(t, err.Error(), "unsupported database type")
	}
}

func TestConnect_InvalidTable(t *testing.T) {
	t.Parallel()

	cfg := database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: slotbox.Tables{Uploads: "drop table;"},
	}

	_, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
}

func TestDatabase_Migrate_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "migrate_idem_test")

	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
}

func TestDatabase_Validate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	before := setupTestDB(t, "validate_before_test")
	assert.Error(t, before.Validate(ctx), "validate should fail without tables")

	after := setupTestDBWithMigration(t, "validate_after_test")
	assert.NoError(t, after.Validate(ctx), "validate should pass after migration")
}

func TestDatabase_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("close_test"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}

func TestDatabase_GetRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := setupTestDBWithMigration(t, "getrepo_test").GetRepo()
	require.NotNil(t, repo)

	u, inserted, err := repo.Upsert(ctx, slotbox.LedgerEntry{
		Name:        "file.txt",
		Size:        100,
		ETag:        "abc123",
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "file.txt", u.Name)

	result, err := repo.List(ctx, slotbox.ListQuery{NamePrefix: "file", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ledger, closeFn, err := database.Open(ctx, newTestConfig("open_test"))
	require.NoError(t, err)
	defer closeFn()

	_, inserted, err := ledger.Upsert(ctx, slotbox.LedgerEntry{Name: "a.bin", Size: 1, ETag: "x", ContentType: "application/octet-stream"})
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := ledger.Get(ctx, "a.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.SizeBytes)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := database.Open(context.Background(), database.Config{Type: "oracle", Tables: slotbox.Tables{Uploads: "uploads"}})
	assert.Error(t, err)
}
