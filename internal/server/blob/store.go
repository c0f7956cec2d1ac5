// Package blob stores ciphertext bytes on the local filesystem. The
// metadata record's path field is the key; signatures stored alongside the
// metadata always describe the bytes currently at that path.
package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store writes and reads ciphertext blobs under a root directory.
type Store struct {
	root string
}

// New creates a blob store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Write stores data at the given relative path, creating parent directories.
// The write is atomic via a rename so a crashed upload never leaves a
// half-written ciphertext behind a valid signature.
func (s *Store) Write(path string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return fmt.Errorf("failed to finalize blob: %w", err)
	}
	return nil
}

// Read returns the bytes stored at the given relative path.
func (s *Store) Read(path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Exists reports whether a blob is stored at the given relative path.
func (s *Store) Exists(path string) bool {
	full, err := s.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes the blob at the given relative path. A missing blob is not
// an error.
func (s *Store) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve joins path onto the root and rejects anything that would escape it.
func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(s.root, clean), nil
}
