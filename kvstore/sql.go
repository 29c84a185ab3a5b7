package kvstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/skosovsky/promptstash/kvstore/migrations"
)

//go:embed migrations
var migrationFS embed.FS

// goose keeps dialect and base FS in package globals.
var migrateMu sync.Mutex

// SQL stores entries in the kv_entries table.
type SQL struct {
	db      *sqlx.DB
	dialect string
}

// OpenSQL opens and migrates a SQL store. driver is one of sqlite3, mysql, postgres.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: ping %s: %w", driver, err)
	}
	if err := Migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQL(db, driver), nil
}

// NewSQL wraps an already migrated connection.
func NewSQL(db *sqlx.DB, driver string) *SQL {
	return &SQL{db: db, dialect: driver}
}

func openDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite3":
		// modernc.org/sqlite registers as "sqlite" (CGO-free)
		db, err := sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("kvstore: open sqlite: %w", err)
		}
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("kvstore: enable WAL: %w", err)
		}
		return db, nil
	case "mysql", "postgres":
		db, err := sqlx.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("kvstore: open %s: %w", driver, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("kvstore: unsupported SQL driver %q", driver)
	}
}

// Migrate applies the embedded goose migrations for driver.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	migrations.SetDialect(driver)
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("kvstore: set goose dialect: %w", err)
	}
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("kvstore: sub migrations fs: %w", err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("kvstore: run migrations: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.GetContext(ctx, &v, s.db.Rebind(`SELECT store_value FROM kv_entries WHERE store_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements Store.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	q := `INSERT INTO kv_entries (store_key, store_value) VALUES (?, ?)
ON CONFLICT (store_key) DO UPDATE SET store_value = excluded.store_value`
	if s.dialect == "mysql" {
		q = `INSERT INTO kv_entries (store_key, store_value) VALUES (?, ?)
ON DUPLICATE KEY UPDATE store_value = VALUES(store_value)`
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(q), key, value); err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	return nil
}

// Remove implements Store.
func (s *SQL) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_entries WHERE store_key = ?`), key); err != nil {
		return fmt.Errorf("kvstore: remove %q: %w", key, err)
	}
	return nil
}

// Keys implements Scanner. The result is sorted.
func (s *SQL) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	q := s.db.Rebind(`SELECT store_key FROM kv_entries WHERE store_key LIKE ? ESCAPE '!' ORDER BY store_key`)
	if err := s.db.SelectContext(ctx, &keys, q, likePrefix(prefix)); err != nil {
		return nil, fmt.Errorf("kvstore: keys %q: %w", prefix, err)
	}
	// LIKE ignores case under sqlite and most mysql collations
	keys = slices.DeleteFunc(keys, func(k string) bool { return !strings.HasPrefix(k, prefix) })
	slices.Sort(keys)
	return keys, nil
}

func likePrefix(prefix string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(prefix) + "%"
}

// Close closes the underlying connection.
func (s *SQL) Close() error {
	return s.db.Close()
}
