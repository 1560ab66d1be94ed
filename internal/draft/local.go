package draft

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalBackend keeps one file per draft under a base directory.
type LocalBackend struct {
	basePath string
}

// NewLocalBackend creates basePath if needed.
func NewLocalBackend(basePath string) (*LocalBackend, error) {
	if basePath == "" {
		basePath = "./drafts"
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("draft: create base directory: %w", err)
	}
	return &LocalBackend{basePath: basePath}, nil
}

// Put writes through a temp file and rename so readers never observe a
// partial draft.
func (b *LocalBackend) Put(_ context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.basePath, ".tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("draft: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("draft: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("draft: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(b.basePath, key+".json")); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("draft: rename temp file: %w", err)
	}
	return nil
}

func (b *LocalBackend) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(b.basePath, key+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("draft: read file: %w", err)
	}
	return data, nil
}

// Delete is idempotent.
func (b *LocalBackend) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(b.basePath, key+".json"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("draft: remove file: %w", err)
	}
	return nil
}
