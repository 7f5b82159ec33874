package hivestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hivegraph/hivecore/hiveerr"
)

// SetBlob stores value under key, replacing any existing value (spec
// §4.5). Grounded on _setBlobValu's INSERT OR REPLACE.
func (s *Store) SetBlob(ctx context.Context, key string, value []byte) error {
	return s.withTxn(ctx, func(t *Txn) error {
		return s.setBlobTx(ctx, t, key, value)
	})
}

func (s *Store) setBlobTx(ctx context.Context, t *Txn, key string, value []byte) error {
	p := s.cat.BlobSet
	args := p.Args(map[string]any{"key": key, "valu": value})
	if _, err := t.exec(ctx, p.SQL, args...); err != nil {
		return hiveerr.WrapQuery("SetBlob", p.SQL, args, err)
	}
	return nil
}

// GetBlob returns the bytes stored under key, or ErrNoSuchName if absent.
// A key with more than one stored row indicates storage corruption and is
// reported as ErrBadCoreStore rather than silently picking one.
func (s *Store) GetBlob(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.withTxn(ctx, func(t *Txn) error {
		v, err := s.getBlobTx(ctx, t, key)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (s *Store) getBlobTx(ctx context.Context, t *Txn, key string) ([]byte, error) {
	p := s.cat.BlobGet
	args := p.Args(map[string]any{"key": key})
	rows, err := t.query(ctx, p.SQL, args...)
	if err != nil {
		return nil, hiveerr.WrapQuery("GetBlob", p.SQL, args, err)
	}
	defer rows.Close()

	var found [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		found = append(found, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", hiveerr.ErrNoSuchName, key)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: blob key %q has %d rows", hiveerr.ErrBadCoreStore, key, len(found))
	}
}

// HasBlob reports whether key has a stored value.
func (s *Store) HasBlob(ctx context.Context, key string) (bool, error) {
	_, err := s.GetBlob(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, hiveerr.ErrNoSuchName):
		return false, nil
	default:
		return false, err
	}
}

// DelBlob deletes the value stored under key, returning ErrNoSuchName if
// it was never set.
func (s *Store) DelBlob(ctx context.Context, key string) error {
	return s.withTxn(ctx, func(t *Txn) error {
		if _, err := s.getBlobTx(ctx, t, key); err != nil {
			return err
		}
		p := s.cat.BlobDel
		args := p.Args(map[string]any{"key": key})
		if _, err := t.exec(ctx, p.SQL, args...); err != nil {
			return hiveerr.WrapQuery("DelBlob", p.SQL, args, err)
		}
		return nil
	})
}

// GetBlobKeys returns every key currently stored in the blob table.
func (s *Store) GetBlobKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.BlobGetKeys
		rows, err := t.query(ctx, p.SQL)
		if err != nil {
			return hiveerr.WrapQuery("GetBlobKeys", p.SQL, nil, err)
		}
		defer rows.Close()
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				return err
			}
			keys = append(keys, k)
		}
		return rows.Err()
	})
	return keys, err
}
