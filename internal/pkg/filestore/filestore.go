// Package filestore manages the on-disk layout of catalog file bytes.
// Every file lives at <root>/<domain>/<file_id>/original/<file_name>, so the
// path is deterministic from the catalog row alone.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Path returns the deterministic storage path for a file.
func (s *Store) Path(domain, fileID, fileName string) string {
	return filepath.Join(s.root, domain, fileID, "original", filepath.Base(fileName))
}

// Write creates the parent directories and writes data to path.
func (s *Store) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create file dir failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file failed: %w", err)
	}
	return nil
}

// WriteFrom streams r into path, returning the byte count.
func (s *Store) WriteFrom(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create file dir failed: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file failed: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write file failed: %w", err)
	}
	return n, nil
}

// Rename moves the stored bytes to the path implied by the new name. The old
// file must exist on disk.
func (s *Store) Rename(domain, fileID, oldPath, newName string) (string, error) {
	newPath := s.Path(domain, fileID, newName)
	if newPath == oldPath {
		return oldPath, nil
	}
	if _, err := os.Stat(oldPath); err != nil {
		return "", fmt.Errorf("stat file for rename failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return "", fmt.Errorf("create file dir failed: %w", err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("rename file failed: %w", err)
	}
	return newPath, nil
}

// Remove deletes the whole <domain>/<file_id> directory for localPath,
// refusing to touch anything outside the store root.
func (s *Store) Remove(localPath string) error {
	// localPath is <root>/<domain>/<id>/original/<name>; the file dir is two
	// levels up.
	fileDir := filepath.Dir(filepath.Dir(localPath))

	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return fmt.Errorf("resolve files root failed: %w", err)
	}
	dirAbs, err := filepath.Abs(fileDir)
	if err != nil {
		return fmt.Errorf("resolve file dir failed: %w", err)
	}
	if dirAbs == rootAbs || !strings.HasPrefix(dirAbs, rootAbs+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove path outside files root: %s", dirAbs)
	}

	if err := os.RemoveAll(dirAbs); err != nil {
		return fmt.Errorf("remove file dir failed: %w", err)
	}
	return nil
}

// Exists reports whether path is a regular file on disk.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
