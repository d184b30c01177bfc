// Package file provides a storage backend that keeps each key in a plain
// file under a base directory. This is the single-user local persistence the
// tracker ships with by default on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type Store struct {
	base string
}

// New creates a file-backed store rooted at base. The directory is created
// on first write, not here, so constructing a store never fails.
func New(base string) *Store {
	return &Store{base: base}
}

func (s *Store) pathFor(key string) string {
	// Keys use forward slashes as separators; map them onto the filesystem.
	return filepath.Join(s.base, filepath.FromSlash(key))
}

// Get reads the payload for key. A missing file means the key was never set.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	payload, err := os.ReadFile(s.pathFor(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return payload, true, nil
}

// Set writes the payload for key atomically: the bytes land in a temp file
// first and are renamed into place, so a crash mid-write never leaves a
// truncated document behind.
func (s *Store) Set(_ context.Context, key string, payload []byte) error {
	path := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pocketbook-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}
