package slotbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

type Service struct {
	verifier       *TokenVerifier
	storage        FileStorage
	metadata       MetadataStore
	ledger         UploadLedger
	enforceSize    bool
	maxUploadSize  int64
	cleanupTimeout time.Duration
	stagingGrace   time.Duration
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	// Ledger is optional; nil disables upload recording.
	Ledger UploadLedger
	// EnforceSize rejects uploads whose body length differs from the
	// declared Content-Length.
	EnforceSize bool
	// MaxUploadSize caps the body length in bytes. Zero means no limit.
	MaxUploadSize  int64
	CleanupTimeout time.Duration // Timeout for rollback operations (default: 30s)
	// StagingGrace is the minimum age before Check treats an incomplete
	// entry as abandoned (default: 1h).
	StagingGrace time.Duration
}

func NewService(verifier *TokenVerifier, storage FileStorage, metadata MetadataStore, cfg ServiceConfig) (*Service, error) {
	if verifier == nil {
		return nil, fmt.Errorf("new service: %w: verifier is required", ErrInvalidInput)
	}
	if storage == nil || metadata == nil {
		return nil, fmt.Errorf("new service: %w: storage and metadata store are required", ErrInvalidInput)
	}
	if cfg.MaxUploadSize < 0 {
		return nil, fmt.Errorf("new service: %w: negative max upload size", ErrInvalidInput)
	}

	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	stagingGrace := cfg.StagingGrace
	if stagingGrace <= 0 {
		stagingGrace = time.Hour
	}

	return &Service{
		verifier:       verifier,
		storage:        storage,
		metadata:       metadata,
		ledger:         cfg.Ledger,
		enforceSize:    cfg.EnforceSize,
		maxUploadSize:  cfg.MaxUploadSize,
		cleanupTimeout: cleanupTimeout,
		stagingGrace:   stagingGrace,
	}, nil
}

// Create verifies an upload token and stores a new object with its sidecar.
//
// The method performs the following steps:
//  1. Verifies the token over the literal request path, declared size and
//     declared content type
//  2. Resolves the storage name from the request path
//  3. Rejects with ErrConflict if an object already exists
//  4. Streams content into storage, which publishes exclusively
//  5. Writes the sidecar; on failure the published object is removed again
//  6. Records the upload in the ledger, if one is configured
//
// version and token come from SelectToken; a zero version yields
// ErrAuthMissing. Size and content-type defaults are applied here, so
// callers pass what the request declared.
//
// Concurrency safety: of several concurrent creates for the same name at
// most one succeeds; the others get ErrConflict.
func (s *Service) Create(ctx context.Context, obj CreateObject, version TokenVersion, token string, content io.Reader) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, fmt.Errorf("create object: %w", err)
	}

	if version == 0 {
		return ObjectInfo{}, fmt.Errorf("create object: %w", ErrAuthMissing)
	}

	size := max(obj.ContentLength, 0)
	contentType := obj.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	if !s.verifier.Verify(version, obj.Path, size, contentType, token) {
		return ObjectInfo{}, fmt.Errorf("create object: %s token: %w", version, ErrAuthInvalid)
	}

	if strings.ContainsAny(contentType, "\r\n") {
		return ObjectInfo{}, fmt.Errorf("create object: %w: line break in content type", ErrInvalidInput)
	}

	if s.maxUploadSize > 0 && size > s.maxUploadSize {
		return ObjectInfo{}, fmt.Errorf("create object: declared %d bytes: %w", size, ErrTooLarge)
	}

	name, err := StorageName(obj.Path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create object: %w", err)
	}

	// Cheap early rejection; the exclusive publish in storage is what
	// actually decides between concurrent creators.
	_, statErr := s.storage.Stat(ctx, name)
	if statErr == nil {
		return ObjectInfo{}, fmt.Errorf("create object %s: %w", name, ErrConflict)
	}
	if !errors.Is(statErr, ErrNotFound) {
		return ObjectInfo{}, fmt.Errorf("create object %s: %w", name, statErr)
	}

	body := content
	if s.maxUploadSize > 0 {
		body = &maxSizeReader{r: body, max: s.maxUploadSize}
	}
	if s.enforceSize {
		body = &exactSizeReader{r: body, expected: size}
	}

	saveResult, writeErr := s.storage.Create(ctx, name, body)
	if writeErr != nil {
		return ObjectInfo{}, fmt.Errorf("create object %s: %w", name, writeErr)
	}

	md := Metadata{MetadataContentType: contentType}
	if metaErr := s.metadata.Write(ctx, name, md); metaErr != nil {
		// Use background context for cleanup since original context may be cancelled
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()

		if delErr := s.storage.Delete(cleanupCtx, name); delErr != nil {
			return ObjectInfo{}, fmt.Errorf("create object %s: metadata write failed (%w) and rollback failed: %w", name, metaErr, delErr)
		}
		return ObjectInfo{}, fmt.Errorf("create object %s: metadata write failed: %w", name, metaErr)
	}

	if s.ledger != nil {
		entry := LedgerEntry{
			Name:        name,
			Size:        saveResult.BytesWritten,
			ETag:        saveResult.Etag,
			ContentType: contentType,
		}
		if _, _, ledgerErr := s.ledger.Upsert(ctx, entry); ledgerErr != nil {
			slog.Warn("failed to record upload in ledger", "name", name, "err", ledgerErr)
		}
	}

	return ObjectInfo{
		Name:        name,
		Size:        saveResult.BytesWritten,
		ContentType: contentType,
	}, nil
}

// Stat returns the size and content type of the object at path without
// opening its content. An object without a sidecar is reported as
// ErrNotFound: it is either still being created or a leftover of a failed
// create.
func (s *Service) Stat(ctx context.Context, path string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}

	name, err := StorageName(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object: %w", ErrNotFound)
	}

	info, err := s.storage.Stat(ctx, name)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}

	md, err := s.metadata.Read(ctx, name)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %s: metadata: %w", name, err)
	}

	info.ContentType = md.ContentType()
	return info, nil
}

// Get opens the object at path for reading. The same missing-sidecar rule
// as Stat applies. The caller must close the returned reader.
func (s *Service) Get(ctx context.Context, path string) (ObjectInfo, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, nil, fmt.Errorf("get object: %w", err)
	}

	name, err := StorageName(path)
	if err != nil {
		return ObjectInfo{}, nil, fmt.Errorf("get object: %w", ErrNotFound)
	}

	f, info, err := s.storage.Open(ctx, name)
	if err != nil {
		return ObjectInfo{}, nil, fmt.Errorf("get object: %w", err)
	}

	md, err := s.metadata.Read(ctx, name)
	if err != nil {
		_ = f.Close()
		return ObjectInfo{}, nil, fmt.Errorf("get object %s: metadata: %w", name, err)
	}

	info.ContentType = md.ContentType()
	return info, f, nil
}

// List returns a page of recorded uploads. Returns ErrNoLedger when the
// service runs without a ledger.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list uploads: %w", err)
	}

	if s.ledger == nil {
		return ListResult{}, fmt.Errorf("list uploads: %w", ErrNoLedger)
	}

	result, err := s.ledger.List(ctx, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list uploads: %w", err)
	}

	return result, nil
}

// Index rebuilds the ledger from storage. Every complete object (content
// plus sidecar) is hashed and upserted; incomplete ones are skipped.
//
// Note: This operation is not atomic. If it fails partway through, some
// objects may have been indexed while others remain unindexed.
func (s *Service) Index(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}

	if s.ledger == nil {
		return 0, fmt.Errorf("index: %w", ErrNoLedger)
	}

	inv, err := s.storage.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}

	indexed := 0
	for _, obj := range inv.Objects {
		md, err := s.metadata.Read(ctx, obj.Name)
		if errors.Is(err, ErrNotFound) {
			slog.Debug("skipping object without metadata", "name", obj.Name)
			continue
		}
		if err != nil {
			return indexed, fmt.Errorf("index '%s': %w", obj.Name, err)
		}

		etag, size, err := s.checksum(ctx, obj.Name)
		if err != nil {
			return indexed, fmt.Errorf("index '%s': %w", obj.Name, err)
		}

		entry := LedgerEntry{
			Name:        obj.Name,
			Size:        size,
			ETag:        etag,
			ContentType: md.ContentType(),
		}
		if _, _, err := s.ledger.Upsert(ctx, entry); err != nil {
			return indexed, fmt.Errorf("index '%s': %w", obj.Name, err)
		}

		indexed++
	}

	return indexed, nil
}

func (s *Service) checksum(ctx context.Context, name string) (string, int64, error) {
	f, _, err := s.storage.Open(ctx, name)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("checksum: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Check looks for storage entries that do not form complete objects:
// content without a sidecar, sidecars without content, and leftover staging
// files. Entries younger than the staging grace period are ignored since
// they may belong to a create that is still running. With repair set, the
// reported entries are removed.
func (s *Service) Check(ctx context.Context, now time.Time, repair bool) (CheckReport, error) {
	if err := ctx.Err(); err != nil {
		return CheckReport{}, fmt.Errorf("check: %w", err)
	}

	inv, err := s.storage.Scan(ctx)
	if err != nil {
		return CheckReport{}, fmt.Errorf("check: %w", err)
	}

	cutoff := now.Add(-s.stagingGrace)
	report := CheckReport{}

	objects := make(map[string]struct{}, len(inv.Objects))
	for _, obj := range inv.Objects {
		objects[obj.Name] = struct{}{}
	}

	sidecars := make(map[string]struct{}, len(inv.Sidecars))
	for _, sc := range inv.Sidecars {
		sidecars[sc.Name] = struct{}{}
		if _, ok := objects[sc.Name]; ok || sc.ModTime.After(cutoff) {
			continue
		}
		report.OrphanSidecars = append(report.OrphanSidecars, sc.Name)
	}

	for _, obj := range inv.Objects {
		if _, ok := sidecars[obj.Name]; ok {
			continue
		}
		if obj.ModTime.After(cutoff) {
			continue
		}
		report.MissingMetadata = append(report.MissingMetadata, obj.Name)
	}

	for _, st := range inv.Staging {
		if st.ModTime.After(cutoff) {
			continue
		}
		report.StaleStaging = append(report.StaleStaging, st.Name)
	}

	if !repair {
		return report, nil
	}

	for _, name := range report.MissingMetadata {
		if err := s.storage.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
			return report, fmt.Errorf("check: remove '%s': %w", name, err)
		}
		report.Repaired++
	}

	for _, name := range report.OrphanSidecars {
		if err := s.metadata.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
			return report, fmt.Errorf("check: remove sidecar of '%s': %w", name, err)
		}
		report.Repaired++
	}

	for _, name := range report.StaleStaging {
		if err := s.storage.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
			return report, fmt.Errorf("check: remove '%s': %w", name, err)
		}
		report.Repaired++
	}

	return report, nil
}
