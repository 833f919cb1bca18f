// Package storage keeps uploaded images outside the database. Notes and
// users only store the returned key.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Key prefixes for the two kinds of uploads.
const (
	NotePrefix    = "notes"
	ProfilePrefix = "profiles"
)

var ErrInvalidKey = errors.New("invalid storage key")

// ImageStore persists image bytes under a key.
type ImageStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh key such as "notes/<uuid>.png".
func NewKey(prefix, ext string) string {
	return prefix + "/" + uuid.NewString() + ext
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
