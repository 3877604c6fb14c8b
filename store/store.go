// Package store provides whole-file JSON persistence for scenario records.
// Each run owns its file exclusively, so there is no locking.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File persists a single JSON document at a fixed path. Writes replace the
// whole file, mirroring tools that re-serialize their full record list on
// every mutation.
type File struct {
	path string
}

// NewFile creates a store backed by the given path. The file is not touched
// until the first Replace.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the document into v. A missing file is not an error; v is left
// untouched so callers start from their zero value.
func (f *File) Load(v any) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", f.path, err)
	}
	return nil
}

// Replace writes v as the entire document, creating parent directories as
// needed.
func (f *File) Replace(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(f.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// Reset deletes the backing file so the next Load starts empty. A missing
// file is not an error.
func (f *File) Reset() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", f.path, err)
	}
	return nil
}
