// Package storage keeps generated documents on the local filesystem.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrHashMismatch = errors.New("storage: content hash mismatch")

// FileStore writes documents under root/active and moves them to root/archive.
type FileStore struct {
	root string
}

// Stored describes a written file.
type Stored struct {
	Path string
	Size int64
	Hash string
}

func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{"active", "archive"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &FileStore{root: root}, nil
}

func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *FileStore) Save(name string, data []byte) (Stored, error) {
	name, err := clean(name)
	if err != nil {
		return Stored{}, err
	}
	path := filepath.Join(s.root, "active", name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Stored{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Stored{}, err
	}
	return Stored{Path: path, Size: int64(len(data)), Hash: Hash(data)}, nil
}

// Read returns the file at path after checking it against wantHash. An empty wantHash skips the check.
func (s *FileStore) Read(path, wantHash string) ([]byte, error) {
	if err := s.within(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if wantHash != "" && Hash(data) != wantHash {
		return nil, ErrHashMismatch
	}
	return data, nil
}

// Archive moves the file at path into the archive area and returns its new path.
func (s *FileStore) Archive(path string) (string, error) {
	if err := s.within(path); err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, "archive", filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Restore moves an archived file back to the active area.
func (s *FileStore) Restore(path string) (string, error) {
	if err := s.within(path); err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, "active", filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (s *FileStore) Remove(path string) error {
	if err := s.within(path); err != nil {
		return err
	}
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) within(path string) error {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("storage: %q is outside the store", path)
	}
	return nil
}

func clean(name string) (string, error) {
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." || base == "" {
		return "", fmt.Errorf("storage: invalid file name %q", name)
	}
	return base, nil
}
