package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateKVEntries, downCreateKVEntries)
}

func upCreateKVEntries(ctx context.Context, tx *sql.Tx) error {
	var ddl string
	switch dialect {
	case "mysql":
		// 191 chars keeps the utf8mb4 primary key under the InnoDB index limit.
		ddl = `CREATE TABLE IF NOT EXISTS kv_entries (
    store_key   VARCHAR(191) PRIMARY KEY,
    store_value LONGTEXT NOT NULL
)`
	default: // sqlite3, postgres
		ddl = `CREATE TABLE IF NOT EXISTS kv_entries (
    store_key   TEXT PRIMARY KEY,
    store_value TEXT NOT NULL
)`
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create kv_entries table: %w", err)
	}
	return nil
}

func downCreateKVEntries(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS kv_entries`)
	return err
}
