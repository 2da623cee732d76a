package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores the token in a JSON object on disk, keyed by a fixed
// storage key so the file mirrors a browser's local storage entry.
type FileBackend struct {
	path string
	key  string
}

// NewFileBackend returns a backend writing to path under key.
func NewFileBackend(path, key string) *FileBackend {
	return &FileBackend{path: path, key: key}
}

func (b *FileBackend) Load(context.Context) (string, error) {
	entries, err := b.read()
	if err != nil {
		return "", err
	}
	return entries[b.key], nil
}

func (b *FileBackend) Save(_ context.Context, token string) error {
	entries, err := b.read()
	if err != nil {
		return err
	}
	entries[b.key] = token
	return b.write(entries)
}

func (b *FileBackend) Delete(context.Context) error {
	entries, err := b.read()
	if err != nil {
		return err
	}
	if _, ok := entries[b.key]; !ok {
		return nil
	}
	delete(entries, b.key)
	if len(entries) == 0 {
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return b.write(entries)
}

func (b *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return entries, nil
}

// write replaces the file atomically so a crash never leaves half a token behind.
func (b *FileBackend) write(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
