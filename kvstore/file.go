package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File persists all keys as one JSON object. The file is read on first access and
// rewritten through a temp file and rename on every change. A corrupt file is
// logged and treated as empty.
type File struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	data   map[string]string
	loaded bool
}

// FileOption configures File.
type FileOption func(*File)

// WithFileLogger sets the logger. Default is slog.Default().
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFile creates a File store at path. Parent directories are created on first write.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return "", false, err
	}
	v, ok := f.data[key]
	return v, ok, nil
}

// Set implements Store.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}
	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

// Remove implements Store.
func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}
	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flush(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

// Keys implements Scanner. The result is sorted.
func (f *File) Keys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return nil, err
	}
	return matchKeys(f.data, prefix), nil
}

func (f *File) load() error {
	if f.loaded {
		return nil
	}
	f.data = make(map[string]string)
	raw, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("kvstore: read %s: %w", f.path, err)
	case len(raw) > 0:
		if err := json.Unmarshal(raw, &f.data); err != nil {
			f.logger.Warn("kvstore file is corrupt, starting empty", "path", f.path, "err", err)
			f.data = make(map[string]string)
		}
	}
	f.loaded = true
	return nil
}

func (f *File) flush() error {
	raw, err := json.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("kvstore: encode: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("kvstore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".kvstore-*")
	if err != nil {
		return fmt.Errorf("kvstore: temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("kvstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("kvstore: replace %s: %w", f.path, err)
	}
	return nil
}
