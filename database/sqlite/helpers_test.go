package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/slotbox"
	"github.com/sagarc03/slotbox/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestDB connects to a fresh in-memory database with a unique table name.
func setupTestDB(t *testing.T) (*sqlite.DB, slotbox.Tables) {
	t.Helper()

	ctx := context.Background()
	tables := slotbox.Tables{Uploads: fmt.Sprintf("uploads_%s", getRandomString(t))}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	return db, tables
}

// setupTestRepo returns a ledger over a migrated in-memory database.
func setupTestRepo(t *testing.T) slotbox.UploadLedger {
	t.Helper()

	db, _ := setupTestDB(t)
	require.NoError(t, db.Migrate(context.Background()), "failed to migrate")

	return db.GetRepo()
}
