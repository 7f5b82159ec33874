package hivestore

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hivegraph/hivecore/hiveerr"
	"github.com/hivegraph/hivecore/hiverow"
	"github.com/hivegraph/hivecore/hivequery"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		Dialect:  hivequery.Dialects.SQLite,
		Table:    "rows",
		PoolSize: 1,
		DSN:      ":memory:",
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenBootstrapsFreshSchema(t *testing.T) {
	s := openTestStore(t)

	exists, err := s.tableExists(context.Background(), "rows")
	if err != nil {
		t.Fatalf("tableExists: %v", err)
	}
	if !exists {
		t.Fatal("expected row table to exist after bootstrap")
	}

	v, err := s.currentVersion(context.Background())
	if err != nil {
		t.Fatalf("currentVersion: %v", err)
	}
	if v != 0 {
		t.Errorf("currentVersion = %d, want 0 with no migrations", v)
	}

	if _, err := s.GetBlob(context.Background(), createdKey); err != nil {
		t.Errorf("expected created sentinel to be set: %v", err)
	}
}

func TestAddAndGetRowsById(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	iden := hiverow.NewIden()
	rows := []hiverow.Row{
		{Iden: iden, Prop: "tufo:form", Value: "inet:ipv4", Tstamp: 100},
		{Iden: iden, Prop: "inet:ipv4", Value: int64(167772160), Tstamp: 100},
	}
	if err := s.AddRows(ctx, rows); err != nil {
		t.Fatalf("AddRows: %v", err)
	}

	got, err := s.GetRowsById(ctx, iden)
	if err != nil {
		t.Fatalf("GetRowsById: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetRowsById returned %d rows, want 2", len(got))
	}
}

func TestGetRowsByIdPropFiltersByValue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	iden := hiverow.NewIden()

	if err := s.AddRows(ctx, []hiverow.Row{
		{Iden: iden, Prop: "inet:ipv4", Value: int64(1), Tstamp: 1},
	}); err != nil {
		t.Fatalf("AddRows: %v", err)
	}

	got, err := s.GetRowsByIdProp(ctx, iden, "inet:ipv4", int64(1))
	if err != nil {
		t.Fatalf("GetRowsByIdProp: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 matching row, got %d", len(got))
	}

	none, err := s.GetRowsByIdProp(ctx, iden, "inet:ipv4", int64(2))
	if err != nil {
		t.Fatalf("GetRowsByIdProp: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected 0 rows for non-matching value, got %d", len(none))
	}
}

func TestSetRowsByIdPropInsertsThenUpdates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	iden := hiverow.NewIden()

	if err := s.SetRowsByIdProp(ctx, iden, "inet:ipv4:asn", int64(1)); err != nil {
		t.Fatalf("SetRowsByIdProp insert: %v", err)
	}
	rows, err := s.GetRowsByIdProp(ctx, iden, "inet:ipv4:asn", nil)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 row after insert, got %d rows (err=%v)", len(rows), err)
	}

	if err := s.SetRowsByIdProp(ctx, iden, "inet:ipv4:asn", int64(2)); err != nil {
		t.Fatalf("SetRowsByIdProp update: %v", err)
	}
	rows, err = s.GetRowsByIdProp(ctx, iden, "inet:ipv4:asn", nil)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected update to replace the single row, got %d rows (err=%v)", len(rows), err)
	}
	if rows[0].Value != int64(2) {
		t.Errorf("value = %v, want 2", rows[0].Value)
	}
}

func TestDelRowsById(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	iden := hiverow.NewIden()

	if err := s.AddRows(ctx, []hiverow.Row{{Iden: iden, Prop: "p", Value: int64(1), Tstamp: 1}}); err != nil {
		t.Fatalf("AddRows: %v", err)
	}
	if err := s.DelRowsById(ctx, iden); err != nil {
		t.Fatalf("DelRowsById: %v", err)
	}
	rows, err := s.GetRowsById(ctx, iden)
	if err != nil {
		t.Fatalf("GetRowsById: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows after delete, got %d", len(rows))
	}
}

func TestBlobSetGetDelHasKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetBlob(ctx, "syn:test:key", []byte("value")); err != nil {
		t.Fatalf("SetBlob: %v", err)
	}

	has, err := s.HasBlob(ctx, "syn:test:key")
	if err != nil || !has {
		t.Fatalf("HasBlob = %v, %v; want true, nil", has, err)
	}

	v, err := s.GetBlob(ctx, "syn:test:key")
	if err != nil || string(v) != "value" {
		t.Fatalf("GetBlob = %q, %v; want value, nil", v, err)
	}

	keys, err := s.GetBlobKeys(ctx)
	if err != nil {
		t.Fatalf("GetBlobKeys: %v", err)
	}
	found := false
	for _, k := range keys {
		if k == "syn:test:key" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected syn:test:key among blob keys, got %v", keys)
	}

	if err := s.DelBlob(ctx, "syn:test:key"); err != nil {
		t.Fatalf("DelBlob: %v", err)
	}
	if _, err := s.GetBlob(ctx, "syn:test:key"); !errors.Is(err, hiveerr.ErrNoSuchName) {
		t.Errorf("expected ErrNoSuchName after delete, got %v", err)
	}
}

func TestDelBlobMissingKey(t *testing.T) {
	s := openTestStore(t)
	if err := s.DelBlob(context.Background(), "nope"); !errors.Is(err, hiveerr.ErrNoSuchName) {
		t.Errorf("expected ErrNoSuchName, got %v", err)
	}
}

func TestGetRowsByPropDispatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	iden := hiverow.NewIden()

	if err := s.AddRows(ctx, []hiverow.Row{
		{Iden: iden, Prop: "inet:ipv4", Value: int64(42), Tstamp: 500},
	}); err != nil {
		t.Fatalf("AddRows: %v", err)
	}

	rows, err := s.GetRowsByProp(ctx, "inet:ipv4", int64(42), nil, nil, 10)
	if err != nil {
		t.Fatalf("GetRowsByProp: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	n, err := s.GetSizeByProp(ctx, "inet:ipv4", int64(42), nil, nil, 10)
	if err != nil {
		t.Fatalf("GetSizeByProp: %v", err)
	}
	if n != 1 {
		t.Errorf("GetSizeByProp = %d, want 1", n)
	}

	if err := s.DelRowsByProp(ctx, "inet:ipv4", int64(42), nil, nil); err != nil {
		t.Fatalf("DelRowsByProp: %v", err)
	}
	rows, err = s.GetRowsByProp(ctx, "inet:ipv4", int64(42), nil, nil, 10)
	if err != nil {
		t.Fatalf("GetRowsByProp after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected 0 rows after DelRowsByProp, got %d", len(rows))
	}
}

// TestConcurrentHandlesReuseStatementCache exercises PoolSize>1, the
// case where a query is first prepared on one pooled handle and then
// must be bound into a transaction running on a different one. Before
// the per-handle statement cache fix this either deadlocked on first
// use (Txn.stmt preparing via t.db while the transaction already held
// that handle's only connection) or failed on the second distinct
// handle with "statement from different database used".
func TestConcurrentHandlesReuseStatementCache(t *testing.T) {
	ctx := context.Background()
	dsn := t.TempDir() + "/rows.db"

	s, err := Open(ctx, Options{
		Dialect: hivequery.Dialects.SQLite, Table: "rows", PoolSize: 2, DSN: dsn,
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// Each AddRows call acquires, uses, and releases a pooled handle; with
	// a FIFO pool of size 2 this cycles across both handles, and the
	// second run-through hits the per-handle cache for a template first
	// prepared during the first.
	for i := 0; i < 6; i++ {
		iden := hiverow.NewIden()
		if err := s.AddRows(ctx, []hiverow.Row{
			{Iden: iden, Prop: "inet:ipv4", Value: int64(i), Tstamp: int64(i)},
		}); err != nil {
			t.Fatalf("AddRows iteration %d: %v", i, err)
		}
		got, err := s.GetRowsById(ctx, iden)
		if err != nil {
			t.Fatalf("GetRowsById iteration %d: %v", i, err)
		}
		if len(got) != 1 {
			t.Fatalf("iteration %d: GetRowsById returned %d rows, want 1", i, len(got))
		}
	}
}

func TestMigrationGatedByAllowRev(t *testing.T) {
	ctx := context.Background()
	dsn := t.TempDir() + "/rows.db"

	s, err := Open(ctx, Options{
		Dialect: hivequery.Dialects.SQLite, Table: "rows", PoolSize: 1, DSN: dsn,
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	applied := false
	migrations := []Migration{
		{Version: 1, Apply: func(ctx context.Context, s *Store, t *Txn) (int, error) {
			applied = true
			return 0, nil
		}},
	}

	// Reopening against the same on-disk store with a pending migration and
	// AllowStorageRev unset must refuse rather than silently apply it.
	_, err = Open(ctx, Options{
		Dialect: hivequery.Dialects.SQLite, Table: "rows", PoolSize: 1, DSN: dsn,
		AllowStorageRev: false,
	}, migrations)
	if !errors.Is(err, hiveerr.ErrNoRevAllow) {
		t.Fatalf("expected ErrNoRevAllow, got %v", err)
	}
	if applied {
		t.Fatal("migration should not have run without AllowStorageRev")
	}

	s2, err := Open(ctx, Options{
		Dialect: hivequery.Dialects.SQLite, Table: "rows", PoolSize: 1, DSN: dsn,
		AllowStorageRev: true,
	}, migrations)
	if err != nil {
		t.Fatalf("Open with AllowStorageRev: %v", err)
	}
	defer s2.Close()
	if !applied {
		t.Fatal("expected migration to run with AllowStorageRev set")
	}
}
