package slotbox

import (
	"context"
	"io"
)

// FileStorage defines the operations on object content under the storage root.
// Names passed to FileStorage are storage names produced by StorageName,
// or staging and sidecar names reported by Scan.
//
// All methods accept a context for cancellation. Implementations must be
// safe for concurrent use.
type FileStorage interface {
	// Stat returns size and modification time of an object.
	// Returns ErrNotFound if nothing exists under name.
	Stat(ctx context.Context, name string) (ObjectInfo, error)

	// Open returns the object content for reading along with its info.
	// The caller is responsible for closing the returned ReadSeekCloser.
	// Returns ErrNotFound if nothing exists under name.
	Open(ctx context.Context, name string) (io.ReadSeekCloser, ObjectInfo, error)

	// Create streams content into a new object.
	//
	// Implementations must publish atomically and exclusively: the object
	// becomes visible only once fully written, and if anything already exists
	// under name the call fails with ErrConflict and leaves it untouched.
	// A failed read from content must leave nothing behind under name.
	Create(ctx context.Context, name string, content io.Reader) (SaveResult, error)

	// Delete removes a single entry. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, name string) error

	// Scan lists every entry in the storage root, classified into objects,
	// sidecars and staging files.
	Scan(ctx context.Context) (Inventory, error)
}

// MetadataStore persists the sidecar record belonging to each object.
type MetadataStore interface {
	// Write stores m as the record for the object name, replacing any
	// previous record.
	Write(ctx context.Context, name string, m Metadata) error

	// Read returns the record for the object name.
	// Returns ErrNotFound if the object has no record.
	Read(ctx context.Context, name string) (Metadata, error)

	// Delete removes the record for the object name.
	// Returns ErrNotFound if the object has no record.
	Delete(ctx context.Context, name string) error
}

// UploadLedger is an optional index of completed uploads. It is never
// consulted by the retrieval path; the storage root stays authoritative.
type UploadLedger interface {
	// Get retrieves the ledger row for an object name.
	// Returns ErrNotFound if the name is not recorded.
	Get(ctx context.Context, name string) (Upload, error)

	// Upsert records an upload, updating the row if the name is already known.
	// The returned bool is true when a new row was created.
	Upsert(ctx context.Context, entry LedgerEntry) (Upload, bool, error)

	// List returns a page of rows ordered by creation time and name.
	List(ctx context.Context, q ListQuery) (ListResult, error)
}
