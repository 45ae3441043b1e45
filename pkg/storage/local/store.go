package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrInvalidPath is returned for paths that are absolute or escape the root.
var ErrInvalidPath = errors.New("invalid storage path")

// Store writes uploaded files beneath a root directory on local disk.
type Store struct {
	root string
}

// Pinger is satisfied by storage backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New builds a Store rooted at root. The directory is created lazily.
func New(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	return &Store{root: filepath.Clean(root)}, nil
}

// Root returns the configured root directory.
func (s *Store) Root() string {
	return s.root
}

// Save copies r to relPath under the root, creating parent directories as
// needed, and returns the cleaned slash-separated relative path.
func (s *Store) Save(ctx context.Context, relPath string, r io.Reader) (string, error) {
	if r == nil {
		return "", errors.New("reader is required")
	}
	clean, err := cleanRelative(relPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), dirPerm); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close file: %w", err)
	}
	return clean, nil
}

// Open returns a reader for a previously saved file.
func (s *Store) Open(relPath string) (*os.File, error) {
	clean, err := cleanRelative(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(relPath string) error {
	clean, err := cleanRelative(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Ping verifies the root exists (creating it when absent) and is a directory.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %q is not a directory", s.root)
	}
	return nil
}

func cleanRelative(relPath string) (string, error) {
	p := strings.TrimSpace(filepath.ToSlash(relPath))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}
