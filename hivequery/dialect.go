package hivequery

import "fmt"

// Dialect captures the per-backend bits the catalogue needs to turn a
// template into backend-native SQL: its driver name and how it spells a
// positional bound parameter. This mirrors the teacher's Dialect type
// (DriverName, PlaceholderChar, PlaceHolderGenerator) trimmed to what the
// row store actually needs.
type Dialect struct {
	// Name is the database/sql driver name passed to sql.Open.
	Name string
	// Placeholder renders the Nth (1-based) bound parameter token.
	Placeholder func(n int) string
	// TableExistsQuery, given a bound {{NAME}} table name, returns a row
	// iff that table exists. One per backend, since there is no portable
	// information-schema query across sqlite/postgres/mysql — the same
	// reason the teacher's Dialect carries a QueryListTables per backend.
	TableExistsQuery string
	// BlobType is the column type used for the blob and trigger tables'
	// opaque-bytes columns. SQLite and MySQL both accept BLOB; PostgreSQL
	// has no BLOB type and needs BYTEA instead.
	BlobType string
	// Upsert renders an insert-or-replace-by-key statement for the given
	// (still-templated) table name, key/value columns, and key/value
	// placeholder tokens. Each backend spells "insert or replace" its own
	// way — SQLite's INSERT OR REPLACE is not valid syntax on Postgres or
	// MySQL, which need ON CONFLICT / ON DUPLICATE KEY UPDATE instead — so
	// the blob and rule upsert templates are generated per dialect rather
	// than shared as one template string.
	Upsert func(table, keyCol, valCol, keyTok, valTok string) string
}

// Dialects mirrors the teacher's Dialects struct: one entry per backend
// the row store supports, reusing the teacher's own three choices.
var Dialects = struct {
	SQLite     *Dialect
	PostgreSQL *Dialect
	MySQL      *Dialect
}{
	SQLite: &Dialect{
		Name:             "sqlite3",
		Placeholder:      func(int) string { return "?" },
		TableExistsQuery: `SELECT name FROM sqlite_master WHERE type='table' AND name={{NAME}}`,
		BlobType:         "BLOB",
		Upsert: func(table, keyCol, valCol, keyTok, valTok string) string {
			return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, %s) VALUES (%s, %s)", table, keyCol, valCol, keyTok, valTok)
		},
	},
	PostgreSQL: &Dialect{
		Name:             "pgx",
		Placeholder:      func(n int) string { return fmt.Sprintf("$%d", n) },
		TableExistsQuery: `SELECT tablename FROM pg_tables WHERE schemaname='public' AND tablename={{NAME}}`,
		BlobType:         "BYTEA",
		Upsert: func(table, keyCol, valCol, keyTok, valTok string) string {
			return fmt.Sprintf(
				"INSERT INTO %s (%s, %s) VALUES (%s, %s) ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s",
				table, keyCol, valCol, keyTok, valTok, keyCol, valCol, valCol,
			)
		},
	},
	MySQL: &Dialect{
		Name:             "mysql",
		Placeholder:      func(int) string { return "?" },
		TableExistsQuery: `SELECT table_name FROM information_schema.tables WHERE table_schema=DATABASE() AND table_name={{NAME}}`,
		BlobType:         "BLOB",
		Upsert: func(table, keyCol, valCol, keyTok, valTok string) string {
			return fmt.Sprintf(
				"INSERT INTO %s (%s, %s) VALUES (%s, %s) ON DUPLICATE KEY UPDATE %s = VALUES(%s)",
				table, keyCol, valCol, keyTok, valTok, valCol, valCol,
			)
		},
	},
}
