// Package store persists candidate parsers, one file per target.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/parsegen/internal/logger"
)

// Store writes candidates under a single directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the candidates directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the candidate file path for target.
func (s *Store) Path(target string) string {
	return filepath.Join(s.dir, target+"_parser.go")
}

// Save replaces the candidate for target with source and returns its path.
// An empty source is written as an empty file. The previous file is never
// left half-written: content goes to a temp file that is renamed into place.
func (s *Store) Save(target, source string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create candidates dir: %w", err)
	}

	path := s.Path(target)
	tmp, err := os.CreateTemp(s.dir, "."+target+"_parser.*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp candidate: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(source); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write candidate: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync candidate: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close candidate: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o640); err != nil {
		return "", fmt.Errorf("chmod candidate: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replace candidate: %w", err)
	}

	logger.Debug("candidate saved", "target", target, "path", path, "size", humanize.Bytes(uint64(len(source))))
	return path, nil
}

// Load returns the current candidate source for target.
func (s *Store) Load(target string) (string, error) {
	b, err := os.ReadFile(s.Path(target)) //#nosec G304 -- path built from the store dir
	if err != nil {
		return "", err
	}
	return string(b), nil
}
