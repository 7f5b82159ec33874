package hiveconf

import (
	"path/filepath"
	"testing"
)

func TestDocSetGetRemove(t *testing.T) {
	doc, err := LoadDoc(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadDoc: %v", err)
	}

	if err := doc.Set("store/pool", float64(4)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := doc.Get("store/pool")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != float64(4) {
		t.Errorf("Get = %v, want 4", v)
	}

	keys, leaf, err := doc.List("store")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if leaf != nil {
		t.Errorf("List returned a leaf for an object path: %v", leaf)
	}
	if len(keys) != 1 || keys[0] != "pool" {
		t.Errorf("List keys = %v, want [pool]", keys)
	}

	if err := doc.Remove("store/pool"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := doc.Get("store/pool"); err == nil {
		t.Error("expected error getting a removed path")
	}
}

func TestDocGetMissingPath(t *testing.T) {
	doc, err := LoadDoc(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadDoc: %v", err)
	}
	if _, err := doc.Get("nope"); err == nil {
		t.Error("expected ErrNoSuchPath")
	}
}

func TestDocSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.json")
	doc, err := LoadDoc(path)
	if err != nil {
		t.Fatalf("LoadDoc: %v", err)
	}
	if err := doc.Set("rev:storage", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadDoc(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	v, err := reloaded.Get("rev:storage")
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if v != true {
		t.Errorf("Get after reload = %v, want true", v)
	}
}

func TestSameValueNormalizesJSON(t *testing.T) {
	a := []any{"x", "y"}
	b := [2]string{"x", "y"}
	if !SameValue(a, b) {
		t.Error("expected array and tuple-shaped value of the same contents to compare equal")
	}

	if SameValue([]any{"x"}, []any{"y"}) {
		t.Error("expected different contents to compare unequal")
	}
}
