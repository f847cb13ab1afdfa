// Package local keeps archived generator output on disk. It backs local
// development and tests; deployed stacks use the s3 store.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"estate-gap-backend/internal/shared/storage/object"
)

// Store writes each object to root/<key>.
type Store struct {
	root string
}

// New returns a store rooted at root. The directory is created on first write.
func New(root string) *Store {
	return &Store{root: root}
}

// Put replaces the object at key. The body lands in a temp file first and is
// renamed into place, so a concurrent Open sees either the old or new body.
func (s *Store) Put(ctx context.Context, key, _ string, body io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dst, err := s.pathFor(key)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("local store mkdir %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return 0, fmt.Errorf("local store temp %s: %w", key, err)
	}
	n, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("local store write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("local store commit %s: %w", key, err)
	}
	return n, nil
}

// Open returns the object at key or object.ErrNotFound.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
	}
	return f, err
}

// pathFor maps a slash-separated key under root. Keys that would escape root
// are rejected.
func (s *Store) pathFor(key string) (string, error) {
	if key == "" || strings.Contains(key, `\`) || path.IsAbs(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

var _ object.ObjectStore = (*Store)(nil)
