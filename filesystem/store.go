// Package filesystem provides the file system storage backend for slotbox.
// Objects and their sidecars live side by side in a single directory opened
// as an os.Root, so no name can escape it. Writes are staged in temp files
// and published with a hard link (objects, exclusive) or a rename
// (sidecars, replacing).
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/slotbox"
)

const stagingPrefix = ".t"

// Store provides object content storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Stat returns size and modification time of a regular file.
// Returns slotbox.ErrNotFound if the file does not exist or is a directory.
func (s *Store) Stat(ctx context.Context, name string) (slotbox.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return slotbox.ObjectInfo{}, err
	}

	fi, err := s.root.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return slotbox.ObjectInfo{}, slotbox.ErrNotFound
		}
		return slotbox.ObjectInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}

	if !fi.Mode().IsRegular() {
		return slotbox.ObjectInfo{}, slotbox.ErrNotFound
	}

	return slotbox.ObjectInfo{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Open opens a file for reading. Returns slotbox.ErrNotFound if the file
// does not exist or is a directory.
func (s *Store) Open(ctx context.Context, name string) (io.ReadSeekCloser, slotbox.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, slotbox.ObjectInfo{}, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, slotbox.ObjectInfo{}, slotbox.ErrNotFound
		}
		return nil, slotbox.ObjectInfo{}, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, slotbox.ObjectInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}

	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, slotbox.ObjectInfo{}, slotbox.ErrNotFound
	}

	return f, slotbox.ObjectInfo{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Create writes content to a staging file and then hard-links it to name.
// The link fails if name already exists, which makes publication an atomic
// create-if-absent: concurrent creators race on the link and exactly one
// wins. The staging file is removed in every case. Returns the number of
// bytes written and a SHA256-based etag.
func (s *Store) Create(ctx context.Context, name string, content io.Reader) (slotbox.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return slotbox.SaveResult{}, ctxErr
	}

	tmpFile, result, err := stage(ctx, s.root, content)
	if err != nil {
		return slotbox.SaveResult{}, err
	}
	defer func() {
		if rmErr := s.root.Remove(tmpFile); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.Warn("failed to remove tmp file", "file", tmpFile, "err", rmErr)
		}
	}()

	if linkErr := s.root.Link(tmpFile, name); linkErr != nil {
		if errors.Is(linkErr, fs.ErrExist) {
			return slotbox.SaveResult{}, slotbox.ErrConflict
		}
		return slotbox.SaveResult{}, fmt.Errorf("failed to publish file: %w", linkErr)
	}

	return result, nil
}

// Delete removes a file. Returns slotbox.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return slotbox.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// Scan lists the root directory and classifies its regular files into
// objects, sidecars and staging files. Directories and unrecognized dot
// files are ignored.
func (s *Store) Scan(ctx context.Context) (slotbox.Inventory, error) {
	if err := ctx.Err(); err != nil {
		return slotbox.Inventory{}, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return slotbox.Inventory{}, fmt.Errorf("failed to list files: %w", err)
	}

	inv := slotbox.Inventory{}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return slotbox.Inventory{}, err
		}

		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return slotbox.Inventory{}, fmt.Errorf("scan: %w", err)
		}

		name := entry.Name()
		switch {
		case !strings.HasPrefix(name, "."):
			inv.Objects = append(inv.Objects, slotbox.ObjectInfo{
				Name:    name,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		case isStagingName(name):
			inv.Staging = append(inv.Staging, slotbox.Entry{Name: name, ModTime: info.ModTime()})
		default:
			if object, ok := slotbox.IsMetadataName(name); ok {
				inv.Sidecars = append(inv.Sidecars, slotbox.Entry{Name: object, ModTime: info.ModTime()})
			}
		}
	}

	return inv, nil
}

// stage copies content into a fresh staging file under root and syncs it.
// On error the staging file is already removed.
func stage(ctx context.Context, root *os.Root, content io.Reader) (string, slotbox.SaveResult, error) {
	tmpFile := tmpFileName()
	t, createErr := root.OpenFile(tmpFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if createErr != nil {
		return "", slotbox.SaveResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && success {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "file", tmpFile, "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	fileSizeBytes, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return "", slotbox.SaveResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err = t.Sync(); err != nil {
		return "", slotbox.SaveResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	success = true
	return tmpFile, slotbox.SaveResult{BytesWritten: fileSizeBytes, Etag: hex.EncodeToString(h.Sum(nil))}, nil
}

func tmpFileName() string {
	return stagingPrefix + uuid.New().String()
}

func isStagingName(name string) bool {
	rest, ok := strings.CutPrefix(name, stagingPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
