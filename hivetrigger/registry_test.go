package hivetrigger

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hivegraph/hivecore/hiveerr"
	"github.com/hivegraph/hivecore/hiverow"
	"github.com/hivegraph/hivecore/hivequery"
	"github.com/hivegraph/hivecore/hivestore"
)

type fakeExecutor struct {
	fired []Rule
}

func (f *fakeExecutor) Execute(ctx context.Context, rule Rule, node hiverow.Iden, vars map[string]any) error {
	f.fired = append(f.fired, rule)
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *fakeExecutor) {
	t.Helper()
	s, err := hivestore.Open(context.Background(), hivestore.Options{
		Dialect: hivequery.Dialects.SQLite, Table: "rows", PoolSize: 1, DSN: ":memory:",
	}, nil)
	if err != nil {
		t.Fatalf("hivestore.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	exec := &fakeExecutor{}
	return NewRegistry(s, exec, nil), exec
}

func TestRegistryAddGetDelete(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	iden, err := reg.Add(ctx, "visi", CondNodeAdd, "[ +#hehe ]", "inet:ipv4", "", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	rule, err := reg.Get(iden)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rule.Form != "inet:ipv4" || rule.Cond != CondNodeAdd {
		t.Errorf("unexpected rule: %+v", rule)
	}

	if err := reg.Delete(ctx, iden); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := reg.Get(iden); !errors.Is(err, hiveerr.ErrNoSuchIden) {
		t.Errorf("expected ErrNoSuchIden after delete, got %v", err)
	}
}

func TestRegistryAddRejectsInvalidRule(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Add(context.Background(), "visi", CondNodeAdd, "[ +#hehe ]", "", "", "")
	if !errors.Is(err, hiveerr.ErrBadOptValu) {
		t.Fatalf("expected ErrBadOptValu for missing form, got %v", err)
	}
}

func TestRegistryAddRejectsEmptyQuery(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Add(context.Background(), "visi", CondNodeAdd, "", "inet:ipv4", "", "")
	if err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestRegistryDispatchNodeAdd(t *testing.T) {
	reg, exec := newTestRegistry(t)
	ctx := context.Background()

	if _, err := reg.Add(ctx, "visi", CondNodeAdd, "[ +#hehe ]", "inet:ipv4", "", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := reg.Add(ctx, "visi", CondNodeAdd, "[ +#nope ]", "inet:fqdn", "", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}

	node := hiverow.NewIden()
	if err := reg.RunNodeAdd(ctx, node, "inet:ipv4"); err != nil {
		t.Fatalf("RunNodeAdd: %v", err)
	}
	if len(exec.fired) != 1 {
		t.Fatalf("expected exactly 1 rule fired, got %d", len(exec.fired))
	}
	if exec.fired[0].Form != "inet:ipv4" {
		t.Errorf("wrong rule fired: %+v", exec.fired[0])
	}
}

func TestRegistryDispatchTagAddExactAndGlobAndAgnostic(t *testing.T) {
	reg, exec := newTestRegistry(t)
	ctx := context.Background()

	// form-specific exact
	if _, err := reg.Add(ctx, "visi", CondTagAdd, "[ +#one ]", "inet:ipv4", "foo.bar", ""); err != nil {
		t.Fatalf("Add exact: %v", err)
	}
	// form-agnostic exact
	if _, err := reg.Add(ctx, "visi", CondTagAdd, "[ +#two ]", "", "foo.bar", ""); err != nil {
		t.Fatalf("Add agnostic: %v", err)
	}
	// form-specific glob
	if _, err := reg.Add(ctx, "visi", CondTagAdd, "[ +#three ]", "inet:ipv4", "foo.*", ""); err != nil {
		t.Fatalf("Add glob: %v", err)
	}
	// form-agnostic glob
	if _, err := reg.Add(ctx, "visi", CondTagAdd, "[ +#four ]", "", "foo.*", ""); err != nil {
		t.Fatalf("Add agnostic glob: %v", err)
	}
	// non-matching
	if _, err := reg.Add(ctx, "visi", CondTagAdd, "[ +#five ]", "inet:ipv4", "zzz.*", ""); err != nil {
		t.Fatalf("Add non-matching: %v", err)
	}

	node := hiverow.NewIden()
	if err := reg.RunTagAdd(ctx, node, "inet:ipv4", "foo.bar"); err != nil {
		t.Fatalf("RunTagAdd: %v", err)
	}
	if len(exec.fired) != 4 {
		t.Fatalf("expected 4 rules fired, got %d: %+v", len(exec.fired), exec.fired)
	}
}

func TestRegistryLoadSkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	s, err := hivestore.Open(ctx, hivestore.Options{
		Dialect: hivequery.Dialects.SQLite, Table: "rows", PoolSize: 1, DSN: ":memory:",
	}, nil)
	if err != nil {
		t.Fatalf("hivestore.Open: %v", err)
	}
	defer s.Close()

	if err := s.PutRule(ctx, hiverow.NewIden(), []byte("not valid msgpack for a rule")); err != nil {
		t.Fatalf("PutRule: %v", err)
	}

	reg := NewRegistry(s, &fakeExecutor{}, nil)
	if err := reg.Load(ctx); err != nil {
		t.Fatalf("Load should tolerate a corrupt record, got error: %v", err)
	}
	if len(reg.List()) != 0 {
		t.Errorf("expected 0 loaded rules from a corrupt-only store, got %d", len(reg.List()))
	}
}

func TestRegistryMod(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	iden, err := reg.Add(ctx, "visi", CondPropSet, "[ +#hehe ]", "", "", "inet:ipv4:asn")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := reg.Mod(ctx, iden, "[ +#newquery ]"); err != nil {
		t.Fatalf("Mod: %v", err)
	}
	rule, err := reg.Get(iden)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rule.Query != "[ +#newquery ]" {
		t.Errorf("Query = %q, want updated value", rule.Query)
	}
}
