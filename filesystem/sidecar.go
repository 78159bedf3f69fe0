package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/slotbox"
)

// SidecarStore keeps each object's metadata record in a ".<name>.metadata"
// file next to it.
type SidecarStore struct {
	root *os.Root
}

// NewSidecarStore creates a SidecarStore over the same root as the objects.
func NewSidecarStore(root *os.Root) *SidecarStore {
	return &SidecarStore{root: root}
}

// Write stages the encoded record and renames it over the sidecar, so
// readers see either the previous record or the complete new one.
func (s *SidecarStore) Write(ctx context.Context, name string, m slotbox.Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := slotbox.EncodeMetadata(m)
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	tmpFile, _, err := stage(ctx, s.root, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, slotbox.MetadataName(name)); renameErr != nil {
		if rmErr := s.root.Remove(tmpFile); rmErr != nil {
			slog.Warn("failed to remove tmp file", "file", tmpFile, "err", rmErr)
		}
		return fmt.Errorf("write metadata: rename: %w", renameErr)
	}

	return nil
}

// Read parses the sidecar of name. Returns slotbox.ErrNotFound if it does
// not exist.
func (s *SidecarStore) Read(ctx context.Context, name string) (slotbox.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(slotbox.MetadataName(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, slotbox.ErrNotFound
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := slotbox.DecodeMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	return m, nil
}

// Delete removes the sidecar of name. Returns slotbox.ErrNotFound if it
// does not exist.
func (s *SidecarStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(slotbox.MetadataName(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return slotbox.ErrNotFound
		}
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}
