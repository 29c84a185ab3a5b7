// Package kvstore is the local string key/value storage behind the template cache and
// user preferences. Backends: in-memory, a JSON file, or a SQL table on SQLite, MySQL
// or PostgreSQL.
package kvstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Store is a string key/value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Scanner is implemented by stores that can enumerate keys.
type Scanner interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
	_ Store = (*SQL)(nil)

	_ Scanner = (*Memory)(nil)
	_ Scanner = (*File)(nil)
	_ Scanner = (*SQL)(nil)
)

// Open returns the store for driver. dsn is a file path for "file" and a
// database DSN for "sqlite3", "mysql" and "postgres"; it is ignored for "memory".
// SQL stores are migrated before they are returned.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		if dsn == "" {
			return nil, fmt.Errorf("kvstore: file store needs a path")
		}
		return NewFile(dsn), nil
	case "sqlite3", "mysql", "postgres":
		return OpenSQL(ctx, driver, dsn)
	default:
		return nil, fmt.Errorf("kvstore: unsupported driver %q: must be memory, file, sqlite3, mysql, or postgres", driver)
	}
}

// Memory is an in-process Store. Zero value is not usable; use NewMemory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys implements Scanner. The result is sorted.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return matchKeys(m.data, prefix), nil
}

func matchKeys(data map[string]string, prefix string) []string {
	var out []string
	for k := range data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
