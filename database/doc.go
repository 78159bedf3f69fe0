// Package database connects slotbox to its optional upload ledger.
//
// The ledger is a table of completed uploads (name, size, etag, content
// type, timestamps). It backs listing and can be rebuilt from the storage
// root at any time with "slotbox index"; the storage root stays the source
// of truth for serving files.
//
// # Supported Backends
//
//   - PostgreSQL: shared deployments, using a pgx connection pool
//   - SQLite: single-node deployments, using modernc.org/sqlite
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "slotbox.db",
//	    Tables: slotbox.Tables{Uploads: "slotbox_uploads"},
//	}
//
//	ledger, cleanup, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Open connects, creates the table if needed and checks its columns. Use
// Connect for finer control over those steps.
package database
