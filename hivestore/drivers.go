package hivestore

import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Importing the three backend drivers here, rather than leaving
// registration to main packages, means any hivestore.Open call can
// address any of the three dialects hivequery.Dialects knows about
// without every caller having to remember the matching blank import —
// the same "storage package owns its own driver set" choice the teacher
// makes by importing mattn/go-sqlite3 directly from its own package.
