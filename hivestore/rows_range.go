package hivestore

import (
	"context"

	"github.com/hivegraph/hivecore/hiveerr"
	"github.com/hivegraph/hivecore/hiverow"
	"github.com/hivegraph/hivecore/hivequery"
)

// RowsByRange, RowsByGe, and RowsByLe scan a prop's own integer value
// range directly (not the tstamp-bounded dispatch matrix in rows.go) —
// grounded on rowsbyrange/getRowsByRange in the original storage layer,
// used for time-series and numeric-index props. Each bound is normalized
// via Store's PropNormalizer before binding, per spec §4.4.
func (s *Store) RowsByRange(ctx context.Context, prop string, minvalu, maxvalu any, limit int) ([]hiverow.Row, error) {
	return s.rangeRows(ctx, s.cat.RowsByRange, prop, minvalu, maxvalu, limit)
}

func (s *Store) RowsByGe(ctx context.Context, prop string, valu any, limit int) ([]hiverow.Row, error) {
	return s.geleRows(ctx, s.cat.RowsByGe, prop, valu, limit)
}

func (s *Store) RowsByLe(ctx context.Context, prop string, valu any, limit int) ([]hiverow.Row, error) {
	return s.geleRows(ctx, s.cat.RowsByLe, prop, valu, limit)
}

func (s *Store) SizeByRange(ctx context.Context, prop string, minvalu, maxvalu any, limit int) (int, error) {
	return s.rangeSize(ctx, s.cat.SizeByRange, prop, minvalu, maxvalu, limit)
}

func (s *Store) SizeByGe(ctx context.Context, prop string, valu any, limit int) (int, error) {
	return s.geleSize(ctx, s.cat.SizeByGe, prop, valu, limit)
}

func (s *Store) SizeByLe(ctx context.Context, prop string, valu any, limit int) (int, error) {
	return s.geleSize(ctx, s.cat.SizeByLe, prop, valu, limit)
}

// JoinByRangeInt scans an integer value range, JoinByRangeStr a
// lexicographic string range (unnormalized — the string range family
// has no property-type normalizer, per spec's Open Questions note on the
// str/int asymmetry); both return the full row set for every matching
// iden, not just the matching rows.
func (s *Store) JoinByRangeInt(ctx context.Context, prop string, minvalu, maxvalu any, limit int) ([]hiverow.Row, error) {
	return s.rangeRows(ctx, s.cat.JoinByRangeInt, prop, minvalu, maxvalu, limit)
}

func (s *Store) JoinByRangeStr(ctx context.Context, prop string, minvalu, maxvalu string, limit int) ([]hiverow.Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var out []hiverow.Row
	err := s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.JoinByRangeStr
		args := p.Args(map[string]any{"prop": prop, "minvalu": minvalu, "maxvalu": maxvalu, "limit": limit})
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("JoinByRangeStr", p.SQL, args, err)
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

func (s *Store) JoinByGe(ctx context.Context, prop string, valu any, limit int) ([]hiverow.Row, error) {
	return s.geleRows(ctx, s.cat.JoinByGe, prop, valu, limit)
}

func (s *Store) JoinByLe(ctx context.Context, prop string, valu any, limit int) ([]hiverow.Row, error) {
	return s.geleRows(ctx, s.cat.JoinByLe, prop, valu, limit)
}

func (s *Store) rangeRows(ctx context.Context, p hivequery.Prepared, prop string, minvalu, maxvalu any, limit int) ([]hiverow.Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	minv, err := s.normalize(prop, minvalu)
	if err != nil {
		return nil, err
	}
	maxv, err := s.normalize(prop, maxvalu)
	if err != nil {
		return nil, err
	}
	var out []hiverow.Row
	err = s.withTxn(ctx, func(t *Txn) error {
		args := p.Args(map[string]any{"prop": prop, "minvalu": minv, "maxvalu": maxv, "limit": limit})
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("rangeRows", p.SQL, args, err)
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

func (s *Store) rangeSize(ctx context.Context, p hivequery.Prepared, prop string, minvalu, maxvalu any, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	minv, err := s.normalize(prop, minvalu)
	if err != nil {
		return 0, err
	}
	maxv, err := s.normalize(prop, maxvalu)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.withTxn(ctx, func(t *Txn) error {
		args := p.Args(map[string]any{"prop": prop, "minvalu": minv, "maxvalu": maxv, "limit": limit})
		return hiveerr.WrapQuery("rangeSize", p.SQL, args, t.queryRow(ctx, p.SQL, args...).Scan(&n))
	})
	return n, err
}

func (s *Store) geleRows(ctx context.Context, p hivequery.Prepared, prop string, valu any, limit int) ([]hiverow.Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	v, err := s.normalize(prop, valu)
	if err != nil {
		return nil, err
	}
	var out []hiverow.Row
	err = s.withTxn(ctx, func(t *Txn) error {
		args := p.Args(map[string]any{"prop": prop, "valu": v, "limit": limit})
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("geleRows", p.SQL, args, err)
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

func (s *Store) geleSize(ctx context.Context, p hivequery.Prepared, prop string, valu any, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	v, err := s.normalize(prop, valu)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.withTxn(ctx, func(t *Txn) error {
		args := p.Args(map[string]any{"prop": prop, "valu": v, "limit": limit})
		return hiveerr.WrapQuery("geleSize", p.SQL, args, t.queryRow(ctx, p.SQL, args...).Scan(&n))
	})
	return n, err
}
