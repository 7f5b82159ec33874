package hivestore

import (
	"context"
	"database/sql"
	"fmt"
)

// Txn is the Transaction Context from spec §4.3: a pooled handle with an
// open *sql.Tx bound to it for the lifetime of one logical operation.
// Grounded on CoreXact's acquire/begin/commit/release split and on the
// teacher's Connection.Transaction panic-safe defer pattern.
type Txn struct {
	db    *sql.DB
	tx    *sql.Tx
	stmts *stmtCache
}

// withTxn acquires a pooled handle, begins a transaction, runs fn, and
// commits on success or rolls back on error or panic — always releasing
// the handle back to the pool before returning, the way the teacher's
// Transaction helper always closes over its own handle's lifetime.
func (s *Store) withTxn(ctx context.Context, fn func(t *Txn) error) (err error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("hivestore: acquiring pooled handle: %w", err)
	}
	released := false
	release := func() {
		if !released {
			s.pool.Put(db)
			released = true
		}
	}
	defer release()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("hivestore: beginning transaction: %w", err)
	}

	t := &Txn{db: db, tx: tx, stmts: s.stmtCacheFor(db)}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			release()
			panic(p)
		}
	}()

	if err = fn(t); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("hivestore: rollback after %w failed: %v", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("hivestore: committing transaction: %w", err)
	}
	return nil
}

// stmt returns a prepared statement for query, bound to this
// transaction, preparing and caching it against the pooled handle on a
// cache miss. The caller must invoke release once done with the result.
//
// A cache miss prepares via t.tx, not t.db: the pool hands out handles
// with SetMaxOpenConns(1), and this transaction already holds that
// handle's sole connection, so a t.db.PrepareContext call here would
// block forever waiting for a connection that can never free up before
// this transaction commits or rolls back. Preparing through t.tx
// reuses the connection the transaction already holds instead of
// asking the handle's pool for another one. The resulting statement
// carries the handle's *sql.DB identity, so a later transaction on the
// same handle can bind it via tx.StmtContext; because it was prepared
// on a transaction, that bind prepares the query again.
func (t *Txn) stmt(ctx context.Context, query string) (*sql.Stmt, func(), error) {
	if cached, release := t.stmts.get(query); cached != nil {
		return t.tx.StmtContext(ctx, cached), release, nil
	}
	prepared, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	cached, release := t.stmts.putAndGet(query, prepared)
	return cached, release, nil
}

func (t *Txn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	stmt, release, err := t.stmt(ctx, query)
	if err != nil {
		return nil, err
	}
	defer release()
	return stmt.ExecContext(ctx, args...)
}

func (t *Txn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	stmt, release, err := t.stmt(ctx, query)
	if err != nil {
		return nil, err
	}
	defer release()
	return stmt.QueryContext(ctx, args...)
}

func (t *Txn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	stmt, release, err := t.stmt(ctx, query)
	if err != nil {
		// database/sql.Row has no error constructor; fall back to the
		// unprepared path so callers still observe the failure via Scan.
		return t.tx.QueryRowContext(ctx, query, args...)
	}
	defer release()
	return stmt.QueryRowContext(ctx, args...)
}
