package slotbox

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Upload is a ledger row describing one stored object.
type Upload struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Etag        string    `json:"etag"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LedgerEntry struct {
	Name        string
	Size        int64
	ETag        string
	ContentType string
}

type ListQuery struct {
	NamePrefix string
	Limit      int
	Cursor     string
}

type ListResult struct {
	Items      []Upload `json:"items"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// ObjectInfo describes a stored object as seen by the retrieval path.
type ObjectInfo struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// CreateObject carries everything the upload path needs about a request.
// Path is the literal request path used for token verification.
type CreateObject struct {
	Path          string
	ContentLength int64
	ContentType   string
}

// Inventory is a raw listing of the storage root used by consistency checks.
// Sidecar entries are keyed by the name of the object they describe.
type Inventory struct {
	Objects  []ObjectInfo
	Sidecars []Entry
	Staging  []Entry
}

type Entry struct {
	Name    string
	ModTime time.Time
}

// CheckReport lists storage entries that do not form complete objects.
type CheckReport struct {
	MissingMetadata []string `json:"missing_metadata"`
	OrphanSidecars  []string `json:"orphan_sidecars"`
	StaleStaging    []string `json:"stale_staging"`
	Repaired        int      `json:"repaired"`
}

// Clean reports whether the check found nothing to repair.
func (r CheckReport) Clean() bool {
	return len(r.MissingMetadata) == 0 && len(r.OrphanSidecars) == 0 && len(r.StaleStaging) == 0
}

// Tables holds configurable table names for the upload ledger.
type Tables struct {
	Uploads string `mapstructure:"uploads"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Uploads == "" {
		return errors.New("validate tables: uploads table name cannot be empty")
	}

	if !IsValidTableName(t.Uploads) {
		return fmt.Errorf("validate tables: invalid uploads table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Uploads)
	}

	return nil
}
