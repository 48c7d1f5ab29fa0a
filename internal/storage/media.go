// Package storage persists uploaded media files on local disk.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaStore writes and reads uploaded files under a base directory.
// Stored names are generated server-side, so client file names never
// reach the filesystem.
type MediaStore struct {
	dir string
}

// NewMediaStore creates the base directory if needed.
func NewMediaStore(dir string) (*MediaStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage: empty media dir")
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("storage: create media dir: %w", errMkdir)
	}
	return &MediaStore{dir: dir}, nil
}

// Save streams the reader to a new uniquely named file and returns the
// stored name and size.
func (s *MediaStore) Save(originalName string, r io.Reader) (string, int64, error) {
	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.dir, storedName)

	out, errCreate := os.Create(path)
	if errCreate != nil {
		return "", 0, fmt.Errorf("storage: create file: %w", errCreate)
	}

	size, errCopy := io.Copy(out, r)
	if errClose := out.Close(); errCopy == nil {
		errCopy = errClose
	}
	if errCopy != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("storage: write file: %w", errCopy)
	}
	return storedName, size, nil
}

// Path returns the absolute on-disk path for a stored name. The name
// is cleaned to its base component to keep reads inside the base dir.
func (s *MediaStore) Path(storedName string) string {
	return filepath.Join(s.dir, filepath.Base(storedName))
}

// Remove deletes a stored file. A missing file is not an error.
func (s *MediaStore) Remove(storedName string) error {
	errRemove := os.Remove(s.Path(storedName))
	if errRemove != nil && !os.IsNotExist(errRemove) {
		return fmt.Errorf("storage: remove file: %w", errRemove)
	}
	return nil
}
