package hivestore

import (
	"context"

	"github.com/hivegraph/hivecore/hiveerr"
	"github.com/hivegraph/hivecore/hiverow"
)

// PutRule stores the encoded rule record under iden, replacing any
// previous record — the persistence seam hivetrigger.Registry builds on,
// mirroring self.core.slab.put(iden, rule.en(), db=self.trigdb).
func (s *Store) PutRule(ctx context.Context, iden hiverow.Iden, data []byte) error {
	return s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.RulePut
		args := p.Args(map[string]any{"iden": iden.String(), "valu": data})
		if _, err := t.exec(ctx, p.SQL, args...); err != nil {
			return hiveerr.WrapQuery("PutRule", p.SQL, args, err)
		}
		return nil
	})
}

// GetRule returns the encoded rule record for iden, or ErrNoSuchIden.
func (s *Store) GetRule(ctx context.Context, iden hiverow.Iden) ([]byte, error) {
	var out []byte
	err := s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.RuleGet
		args := p.Args(map[string]any{"iden": iden.String()})
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("GetRule", p.SQL, args, err)
		}
		defer rows.Close()
		if !rows.Next() {
			return hiveerr.ErrNoSuchIden
		}
		return rows.Scan(&out)
	})
	return out, err
}

// DelRule removes the encoded rule record for iden.
func (s *Store) DelRule(ctx context.Context, iden hiverow.Iden) error {
	return s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.RuleDel
		args := p.Args(map[string]any{"iden": iden.String()})
		if _, err := t.exec(ctx, p.SQL, args...); err != nil {
			return hiveerr.WrapQuery("DelRule", p.SQL, args, err)
		}
		return nil
	})
}

// ScanRules returns every stored (iden, data) rule record, for registry
// warm-up at startup — grounded on _load_all's scanByFull.
func (s *Store) ScanRules(ctx context.Context) (map[hiverow.Iden][]byte, error) {
	out := make(map[hiverow.Iden][]byte)
	err := s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.RuleScan
		rows, err := t.query(ctx, p.SQL)
		if err != nil {
			return hiveerr.WrapQuery("ScanRules", p.SQL, nil, err)
		}
		defer rows.Close()
		for rows.Next() {
			var idenHex string
			var data []byte
			if err := rows.Scan(&idenHex, &data); err != nil {
				return err
			}
			iden, err := hiverow.IdenFromHex(idenHex)
			if err != nil {
				return err
			}
			out[iden] = data
		}
		return rows.Err()
	})
	return out, err
}
