// Package migrations holds the kvstore schema as dialect-aware goose Go migrations.
package migrations

// dialect is set by package kvstore before migrations are applied.
var dialect string

// SetDialect configures the SQL dialect. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}
