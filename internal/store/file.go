package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vyrodovalexey/catalog-api/internal/atomicfile"
	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// FileStore implements Store on top of a JSON array document on disk.
// Every Load reads the file afresh; every Save rewrites it by replacement.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the whole collection.
func (s *FileStore) Load(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load items: %w", ctx.Err())
	default:
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		observeStoreOp("load", err)
		return nil, &model.StorageError{Op: "read items", Path: s.path, Err: err}
	}

	var items []model.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		observeStoreOp("load", err)
		return nil, &model.StorageError{Op: "decode items", Path: s.path, Err: err}
	}
	observeStoreOp("load", nil)

	if items == nil {
		items = []model.Item{}
	}

	return items, nil
}

// Save encodes the collection with two-space indentation and atomically
// replaces the backing file.
func (s *FileStore) Save(ctx context.Context, items []model.Item) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("save items: %w", ctx.Err())
	default:
	}

	if items == nil {
		items = []model.Item{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		observeStoreOp("save", err)
		return &model.StorageError{Op: "encode items", Path: s.path, Err: err}
	}

	if err := atomicfile.WriteFile(s.path, data, 0); err != nil {
		observeStoreOp("save", err)
		return &model.StorageError{Op: "write items", Path: s.path, Err: err}
	}
	observeStoreOp("save", nil)

	return nil
}

// EnsureExists creates the backing file with an empty collection when it
// does not exist yet. It reports whether a file was created.
func (s *FileStore) EnsureExists() (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, &model.StorageError{Op: "stat items", Path: s.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, &model.StorageError{Op: "create data dir", Path: s.path, Err: err}
	}

	if err := atomicfile.WriteFile(s.path, []byte("[]"), 0o644); err != nil {
		return false, &model.StorageError{Op: "seed items", Path: s.path, Err: err}
	}

	return true, nil
}
