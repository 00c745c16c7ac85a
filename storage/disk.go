package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rs/zerolog/log"
)

// DiskStore keeps blobs on the local filesystem below root.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Put(ctx context.Context, namespace string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := newKey(namespace, contentType)
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errs.NewStorageError("create directory for "+ref, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", errs.NewStorageError("write "+ref, err)
	}

	log.Debug().Str("ref", ref).Int("bytes", len(data)).Msg("Stored blob on disk")
	return ref, nil
}

// Delete removes ref. A blob that is already gone is not an error.
func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validRef(ref) {
		return errs.NewStorageError("delete invalid reference "+ref, nil)
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.NewStorageError("delete "+ref, err)
	}
	return nil
}

// Path returns the filesystem path of ref.
func (s *DiskStore) Path(ref string) string {
	return filepath.Join(s.root, filepath.FromSlash(ref))
}
