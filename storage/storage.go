// Package storage holds the blob stores project images are written to.
// References returned by Put are keys relative to the store root, e.g.
// "projects/6f0e8c4e-....png".
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-admin-backend/config"
)

type Store interface {
	Put(ctx context.Context, namespace string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// New builds the store selected by STORAGE_DRIVER ("local" or "s3").
func New(ctx context.Context, c map[string]string) (Store, error) {
	switch driver := config.GetString(c, "STORAGE_DRIVER", "local"); driver {
	case "local":
		return NewDiskStore(config.GetString(c, "STORAGE_ROOT", "storage/app/public"))
	case "s3":
		return NewS3StoreFromConfig(ctx, c)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}
}

// newKey returns a fresh object key under namespace with an extension
// matching contentType.
func newKey(namespace, contentType string) string {
	ext := ""
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}
	return path.Join(strings.Trim(namespace, "/"), uuid.NewString()+ext)
}

// validRef rejects empty references and ones escaping the store root.
func validRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") {
		return false
	}
	for _, part := range strings.Split(ref, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
