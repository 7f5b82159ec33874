// Package hivestore implements the row store: a schema-light, indexed,
// transactional row engine over (iden, prop, value, tstamp) tuples plus a
// keyed blob store, fronted by a connection pool and a query catalogue.
package hivestore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/table"
	"go.uber.org/zap"

	"github.com/hivegraph/hivecore/hivepool"
	"github.com/hivegraph/hivecore/hivequery"
)

// Clock returns the current time as epoch milliseconds. Injectable so
// tests can control row timestamps deterministically, the way the
// original's s_common.now() is a single seam callers can fake.
type Clock func() int64

// PropNormalizer normalizes a range-query bound for a given property
// before it is bound into a range/ge/le query, mirroring getPropNorm in
// the original storage layer. The default normalizer requires the value
// already be an int or int64.
type PropNormalizer func(prop string, v any) (int64, error)

// Options configures a Store at construction.
type Options struct {
	// Dialect selects the backend SQL dialect (hivequery.Dialects.*).
	Dialect *hivequery.Dialect
	// Table is the row table's name; the blob table is Table+"_blob".
	Table string
	// PoolSize is the number of pooled handles; default 1, matching the
	// original DbPool's default pool size.
	PoolSize int
	// DSN is the backend-specific data source name passed to sql.Open.
	DSN string
	// Pool overrides the connection pool Open would otherwise build from
	// Dialect/DSN/PoolSize — the "dbpool" config option's pre-built pool
	// override. When set, Dialect is still required (for the catalogue)
	// but DSN and PoolSize are ignored.
	Pool *hivepool.Pool[*sql.DB]
	// AllowStorageRev corresponds to the rev:storage config option: it
	// must be true for the Schema Manager to apply pending migrations.
	AllowStorageRev bool
	// Clock overrides row timestamps and the blob sentinel creation time.
	Clock Clock
	// Normalize overrides range-query bound normalization.
	Normalize PropNormalizer
	// Logger receives schema-migration diagnostics. A no-op logger is
	// used if nil.
	Logger *zap.SugaredLogger
}

// Store is the row store facade: connection pool, prepared query
// catalogue, and the Row/Blob operations built on top of them.
type Store struct {
	pool        *hivepool.Pool[*sql.DB]
	cat         *hivequery.Catalogue
	dialectName string
	clock       Clock
	normalize   PropNormalizer
	log         *zap.SugaredLogger
	allowRev    bool

	stmtsMu sync.Mutex
	// stmtsByHandle holds one stmtCache per pooled *sql.DB. A statement
	// prepared on one handle carries that handle's sql.DB identity
	// (Stmt.db); binding it into a *sql.Tx belonging to a different
	// handle fails with "statement from different database used", so
	// the cache cannot be shared across handles the way a single
	// process-wide cache would.
	stmtsByHandle map[*sql.DB]*stmtCache
}

// stmtCacheFor returns the statement cache for db, creating it on first
// use.
func (s *Store) stmtCacheFor(db *sql.DB) *stmtCache {
	s.stmtsMu.Lock()
	defer s.stmtsMu.Unlock()
	c, ok := s.stmtsByHandle[db]
	if !ok {
		c = newStmtCache(0)
		s.stmtsByHandle[db] = c
	}
	return c
}

// Open creates the connection pool, query catalogue, and runs schema
// initialization (spec §4.6): creating the row/blob/trigger tables on a
// fresh store, or retrofitting the blob table and applying pending
// migrations on an existing one.
func Open(ctx context.Context, opts Options, migrations []Migration) (*Store, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}
	if opts.Clock == nil {
		opts.Clock = defaultClock
	}
	if opts.Normalize == nil {
		opts.Normalize = defaultNormalize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Table == "" {
		return nil, fmt.Errorf("hivestore: table name is required")
	}

	pool := opts.Pool
	if pool == nil {
		var err error
		pool, err = hivepool.New(opts.PoolSize, func() (*sql.DB, error) {
			db, err := sql.Open(opts.Dialect.Name, opts.DSN)
			if err != nil {
				return nil, err
			}
			// Each pooled handle owns exactly one physical connection, so the
			// pool — not database/sql's own internal pool — governs
			// concurrency, matching the original DbPool semantics of one
			// handle per connection.
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
			if err := db.PingContext(ctx); err != nil {
				db.Close()
				return nil, err
			}
			return db, nil
		}, func(db *sql.DB) error { return db.Close() })
		if err != nil {
			return nil, fmt.Errorf("hivestore: building connection pool: %w", err)
		}
	}

	s := &Store{
		pool:          pool,
		cat:           hivequery.New(opts.Dialect, opts.Table),
		dialectName:   opts.Dialect.Name,
		clock:         opts.Clock,
		normalize:     opts.Normalize,
		log:           opts.Logger,
		allowRev:      opts.AllowStorageRev,
		stmtsByHandle: make(map[*sql.DB]*stmtCache),
	}

	if err := s.initSchema(ctx, migrations); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases every pooled handle. Callers must ensure no transaction
// is in flight.
func (s *Store) Close() error {
	s.stmtsMu.Lock()
	for _, c := range s.stmtsByHandle {
		c.close()
	}
	s.stmtsMu.Unlock()
	return s.pool.Close()
}

// PrintSchema renders the row/blob/trigger table names and dialect this
// store was opened with, grounded on the teacher's
// Connection.PrintSchematic diagnostic.
func (s *Store) PrintSchema(w io.Writer) {
	fmt.Fprintf(w, "SQL Dialect: %s\n", s.dialectName)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Table", "Role"})
	t.AppendRow(table.Row{s.cat.TableName(), "rows"})
	t.AppendRow(table.Row{s.cat.BlobTableName(), "blob"})
	t.AppendRow(table.Row{s.cat.TriggerTableName(), "triggers"})
	t.Render()
}

func defaultClock() int64 {
	return nowMillis()
}

func defaultNormalize(_ string, v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	default:
		return 0, fmt.Errorf("hivestore: value %v (%T) is not an integer and no normalizer is configured", v, v)
	}
}
