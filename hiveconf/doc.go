package hiveconf

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// Doc is the JSON configuration tree the hive CLI's ls/get/rm/edit
// subcommands walk, keyed by "/"-separated paths. It is independent of
// the Options/Load path above, which only reads the handful of keys the
// core itself recognizes out of a *viper.Viper; Doc is the broader
// document those keys (and anything else an operator wants to track)
// live inside.
type Doc struct {
	path string
	root any
}

// LoadDoc reads a JSON document from path. A missing file yields an
// empty document (an empty map) so a fresh deployment can "edit" its way
// to a first config.
func LoadDoc(path string) (*Doc, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Doc{path: path, root: map[string]any{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var root any
	if len(b) == 0 {
		root = map[string]any{}
	} else if err := json.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("hiveconf: parsing %s: %w", path, err)
	}
	return &Doc{path: path, root: root}, nil
}

// Save writes the document back to its path as indented JSON.
func (d *Doc) Save() error {
	b, err := json.MarshalIndent(d.root, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(d.path, append(b, '\n'), 0o644)
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// ErrNoSuchPath reports a path with no value in the document.
type ErrNoSuchPath struct{ Path string }

func (e ErrNoSuchPath) Error() string { return fmt.Sprintf("hiveconf: no such path %q", e.Path) }

// Get resolves path to its value. An empty path returns the whole
// document.
func (d *Doc) Get(path string) (any, error) {
	cur := d.root
	for _, key := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, ErrNoSuchPath{Path: path}
		}
		v, ok := m[key]
		if !ok {
			return nil, ErrNoSuchPath{Path: path}
		}
		cur = v
	}
	return cur, nil
}

// List returns the child keys under path in no particular order, or nil
// keys plus the value itself if path resolves to a non-object value (a
// leaf).
func (d *Doc) List(path string) ([]string, any, error) {
	v, err := d.Get(path)
	if err != nil {
		return nil, nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, v, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys, nil, nil
}

// Set stores value at path, creating intermediate objects as needed.
// Setting at the root path ("") replaces the whole document.
func (d *Doc) Set(path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		d.root = value
		return nil
	}

	if _, ok := d.root.(map[string]any); !ok {
		d.root = map[string]any{}
	}
	cur := d.root.(map[string]any)
	for _, key := range parts[:len(parts)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	return nil
}

// Remove deletes the value at path. It is an error to remove an absent
// path.
func (d *Doc) Remove(path string) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("hiveconf: cannot remove the root path")
	}

	cur, ok := d.root.(map[string]any)
	if !ok {
		return ErrNoSuchPath{Path: path}
	}
	for _, key := range parts[:len(parts)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return ErrNoSuchPath{Path: path}
		}
		cur = next
	}
	last := parts[len(parts)-1]
	if _, ok := cur[last]; !ok {
		return ErrNoSuchPath{Path: path}
	}
	delete(cur, last)
	return nil
}

// SameValue reports whether a and b are equal the way the edit command's
// unchanged-value check treats them: both are round-tripped through
// JSON first, which folds tuple-shaped values and JSON arrays into the
// same []any representation before reflect.DeepEqual compares them.
// This mirrors the source's array/tuple equality conflation in that one
// command without needing a Python-style tuple type in Go.
func SameValue(a, b any) bool {
	na, erra := normalizeJSON(a)
	nb, errb := normalizeJSON(b)
	if erra != nil || errb != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalizeJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
