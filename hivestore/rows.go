package hivestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hivegraph/hivecore/hiveerr"
	"github.com/hivegraph/hivecore/hiverow"
	"github.com/hivegraph/hivecore/hivequery"
)

// DefaultLimit bounds unbounded-looking prop queries the way the
// original storage layer's default limit keyword argument does.
const DefaultLimit = 10000

func splitValue(v hiverow.Row) (strval, intval any) {
	switch t := v.Value.(type) {
	case int64:
		return nil, t
	case int:
		return nil, int64(t)
	case string:
		return t, nil
	default:
		panic(fmt.Sprintf("hivestore: row value must be int64 or string, got %T", v.Value))
	}
}

func scanRows(rows *sql.Rows) ([]hiverow.Row, error) {
	var out []hiverow.Row
	for rows.Next() {
		var idenHex, prop string
		var strval sql.NullString
		var intval sql.NullInt64
		var tstamp int64
		if err := rows.Scan(&idenHex, &prop, &strval, &intval, &tstamp); err != nil {
			return nil, err
		}
		iden, err := hiverow.IdenFromHex(idenHex)
		if err != nil {
			return nil, err
		}
		var ip *int64
		var sp *string
		if intval.Valid {
			v := intval.Int64
			ip = &v
		}
		if strval.Valid {
			v := strval.String
			sp = &v
		}
		out = append(out, hiverow.Fold(iden, prop, ip, sp, tstamp))
	}
	return out, rows.Err()
}

// AddRows inserts rows in a single transaction, the way the original
// addRows batches inserts under one cursor.
func (s *Store) AddRows(ctx context.Context, rows []hiverow.Row) error {
	return s.withTxn(ctx, func(t *Txn) error {
		for _, r := range rows {
			if err := s.addRowTx(ctx, t, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) addRowTx(ctx context.Context, t *Txn, r hiverow.Row) error {
	strval, intval := splitValue(r)
	p := s.cat.AddRow
	args := p.Args(map[string]any{
		"iden":   r.Iden.String(),
		"prop":   r.Prop,
		"strval": strval,
		"intval": intval,
		"tstamp": r.Tstamp,
	})
	if _, err := t.exec(ctx, p.SQL, args...); err != nil {
		return hiveerr.WrapQuery("AddRows", p.SQL, args, err)
	}
	return nil
}

// GetRowsById returns every row for iden, regardless of prop.
func (s *Store) GetRowsById(ctx context.Context, iden hiverow.Iden) ([]hiverow.Row, error) {
	var out []hiverow.Row
	err := s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.GetRowsByIden
		args := p.Args(map[string]any{"iden": iden.String()})
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("GetRowsById", p.SQL, args, err)
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

// GetRowsByIdProp returns the rows for (iden, prop), optionally filtered
// to rows whose value equals valu (valu may be nil for no filter).
func (s *Store) GetRowsByIdProp(ctx context.Context, iden hiverow.Iden, prop string, valu any) ([]hiverow.Row, error) {
	var out []hiverow.Row
	err := s.withTxn(ctx, func(t *Txn) error {
		p, args := s.idenPropQuery(iden, prop, valu)
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("GetRowsByIdProp", p.SQL, args, err)
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

func (s *Store) idenPropQuery(iden hiverow.Iden, prop string, valu any) (hivequery.Prepared, []any) {
	values := map[string]any{"iden": iden.String(), "prop": prop, "valu": valu}
	switch hiverow.KindOf(valu) {
	case hiverow.KindInt:
		p := s.cat.GetRowsByIdenPropInt
		return p, p.Args(values)
	case hiverow.KindStr:
		p := s.cat.GetRowsByIdenPropStr
		return p, p.Args(values)
	default:
		p := s.cat.GetRowsByIdenProp
		return p, p.Args(values)
	}
}

// DelRowsById deletes every row for iden.
func (s *Store) DelRowsById(ctx context.Context, iden hiverow.Iden) error {
	return s.withTxn(ctx, func(t *Txn) error {
		p := s.cat.DelRowsByIden
		args := p.Args(map[string]any{"iden": iden.String()})
		_, err := t.exec(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("DelRowsById", p.SQL, args, err)
		}
		return nil
	})
}

// DelRowsByIdProp deletes rows for (iden, prop), optionally filtered to
// rows whose value equals valu.
func (s *Store) DelRowsByIdProp(ctx context.Context, iden hiverow.Iden, prop string, valu any) error {
	return s.withTxn(ctx, func(t *Txn) error {
		values := map[string]any{"iden": iden.String(), "prop": prop, "valu": valu}
		var p hivequery.Prepared
		switch hiverow.KindOf(valu) {
		case hiverow.KindInt:
			p = s.cat.DelRowsByIdenPropInt
		case hiverow.KindStr:
			p = s.cat.DelRowsByIdenPropStr
		default:
			p = s.cat.DelRowsByIdenProp
		}
		args := p.Args(values)
		if _, err := t.exec(ctx, p.SQL, args...); err != nil {
			return hiveerr.WrapQuery("DelRowsByIdProp", p.SQL, args, err)
		}
		return nil
	})
}

// SetRowsByIdProp updates the existing (iden, prop) row to valu, or
// inserts a fresh row stamped with the current time if none existed —
// the update-or-insert pattern grounded on _setRowsByIdProp. Like the
// original, the UPDATE only ever touches the typed column matching
// valu's kind: setting an int then a string on the same (iden, prop)
// leaves both intval and strval non-null, and Fold's int-first
// preference then returns the stale int rather than the latest write.
func (s *Store) SetRowsByIdProp(ctx context.Context, iden hiverow.Iden, prop string, valu any) error {
	return s.withTxn(ctx, func(t *Txn) error {
		var p hivequery.Prepared
		switch hiverow.KindOf(valu) {
		case hiverow.KindInt:
			p = s.cat.UpRowsByIdenPropInt
		case hiverow.KindStr:
			p = s.cat.UpRowsByIdenPropStr
		default:
			return fmt.Errorf("hivestore: SetRowsByIdProp requires an int64 or string value, got %T", valu)
		}
		args := p.Args(map[string]any{"iden": iden.String(), "prop": prop, "valu": valu})
		res, err := t.exec(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("SetRowsByIdProp", p.SQL, args, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		return s.addRowTx(ctx, t, hiverow.Row{Iden: iden, Prop: prop, Value: valu, Tstamp: s.clock()})
	})
}

// GetRowsByProp, GetJoinByProp, and GetSizeByProp dispatch through the
// precompiled (value, mintime, maxtime) kind matrix from hivequery,
// matching the original qbuild dispatch in _initCorQueries.
func (s *Store) GetRowsByProp(ctx context.Context, prop string, valu, mintime, maxtime any, limit int) ([]hiverow.Row, error) {
	var out []hiverow.Row
	err := s.withTxn(ctx, func(t *Txn) error {
		p, args, err := s.propArgs(s.cat.LookupRowsByProp, prop, valu, mintime, maxtime, limit)
		if err != nil {
			return err
		}
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("GetRowsByProp", p.SQL, args, err)
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

func (s *Store) GetJoinByProp(ctx context.Context, prop string, valu, mintime, maxtime any, limit int) ([]hiverow.Row, error) {
	var out []hiverow.Row
	err := s.withTxn(ctx, func(t *Txn) error {
		p, args, err := s.propArgs(s.cat.LookupJoinByProp, prop, valu, mintime, maxtime, limit)
		if err != nil {
			return err
		}
		rows, err := t.query(ctx, p.SQL, args...)
		if err != nil {
			return hiveerr.WrapQuery("GetJoinByProp", p.SQL, args, err)
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

func (s *Store) GetSizeByProp(ctx context.Context, prop string, valu, mintime, maxtime any, limit int) (int, error) {
	var n int
	err := s.withTxn(ctx, func(t *Txn) error {
		p, args, err := s.propArgs(s.cat.LookupSizeByProp, prop, valu, mintime, maxtime, limit)
		if err != nil {
			return err
		}
		return hiveerr.WrapQuery("GetSizeByProp", p.SQL, args, t.queryRow(ctx, p.SQL, args...).Scan(&n))
	})
	return n, err
}

// DelRowsByProp and DelJoinByProp delete through the same dispatch
// matrix, unbounded by limit since delete has no LIMIT clause.
func (s *Store) DelRowsByProp(ctx context.Context, prop string, valu, mintime, maxtime any) error {
	return s.withTxn(ctx, func(t *Txn) error {
		p, args, err := s.propArgs(s.cat.LookupDelRowsByProp, prop, valu, mintime, maxtime, 0)
		if err != nil {
			return err
		}
		if _, err := t.exec(ctx, p.SQL, args...); err != nil {
			return hiveerr.WrapQuery("DelRowsByProp", p.SQL, args, err)
		}
		return nil
	})
}

func (s *Store) DelJoinByProp(ctx context.Context, prop string, valu, mintime, maxtime any) error {
	return s.withTxn(ctx, func(t *Txn) error {
		p, args, err := s.propArgs(s.cat.LookupDelJoinByProp, prop, valu, mintime, maxtime, 0)
		if err != nil {
			return err
		}
		if _, err := t.exec(ctx, p.SQL, args...); err != nil {
			return hiveerr.WrapQuery("DelJoinByProp", p.SQL, args, err)
		}
		return nil
	})
}

// propArgs resolves the dispatch-matrix entry for (valu, mintime, maxtime)
// via lookup and binds its arguments, defaulting limit to DefaultLimit
// when the caller passes zero (delete variants pass 0 and have no LIMIT
// placeholder, so the unused value is harmless).
func (s *Store) propArgs(lookup func(value, mintime, maxtime any) (hivequery.Prepared, bool), prop string, valu, mintime, maxtime any, limit int) (hivequery.Prepared, []any, error) {
	p, ok := lookup(valu, mintime, maxtime)
	if !ok {
		return hivequery.Prepared{}, nil, fmt.Errorf("hivestore: no dispatch template for value=%T mintime=%T maxtime=%T", valu, mintime, maxtime)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	args := p.Args(map[string]any{
		"prop":    prop,
		"valu":    valu,
		"mintime": mintime,
		"maxtime": maxtime,
		"limit":   limit,
	})
	return p, args, nil
}
