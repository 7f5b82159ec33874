package hivequery

import (
	"regexp"
	"strings"

	"github.com/hivegraph/hivecore/hiverow"
)

var placeholderRe = regexp.MustCompile(`\{\{([A-Z_]+)\}\}`)

// Prepared is a template with both placeholder classes already substituted:
// {{TABLE}}/{{BLOB_TABLE}} resolved to real table names, and every
// {{NAME}} resolved to the dialect's Nth bound-parameter token. ParamOrder
// records the lowercase argument name each positional token corresponds
// to, so Args can build a driver arg slice from a name->value map.
type Prepared struct {
	SQL        string
	ParamOrder []string
}

// Args builds the positional argument slice for this prepared query from a
// name->value map, panicking if a required name is missing — a programmer
// error, since ParamOrder comes directly from the template text.
func (p Prepared) Args(values map[string]any) []any {
	args := make([]any, len(p.ParamOrder))
	for i, name := range p.ParamOrder {
		v, ok := values[name]
		if !ok {
			panic("hivequery: missing bound parameter " + name)
		}
		args[i] = v
	}
	return args
}

// Catalogue holds every query template the row store needs, substituted
// once for a specific (table name, dialect) pair at construction time —
// never rebuilt per call, per spec §4.2's design note.
type Catalogue struct {
	dialect *Dialect
	table   string
	blob    string
	triggerTable string

	IsTable  Prepared
	InitTable, InitBlobTable                                     Prepared
	InitIdenIdx, InitPropIdx, InitStrvalIdx, InitIntvalIdx, InitBlobIdx Prepared
	InitTriggerTable, InitTriggerIdx                              Prepared

	AddRow                                                 Prepared
	GetRowsByIden, GetRowsByIdenProp                       Prepared
	GetRowsByIdenPropInt, GetRowsByIdenPropStr             Prepared
	DelRowsByIden, DelRowsByIdenProp                       Prepared
	DelRowsByIdenPropInt, DelRowsByIdenPropStr             Prepared
	UpRowsByIdenPropInt, UpRowsByIdenPropStr               Prepared

	RowsByRange, RowsByGe, RowsByLe                        Prepared
	SizeByRange, SizeByGe, SizeByLe                        Prepared
	JoinByRangeInt, JoinByRangeStr, JoinByGe, JoinByLe     Prepared

	BlobSet, BlobGet, BlobDel, BlobGetKeys                 Prepared

	RuleGet, RulePut, RuleDel, RuleScan                    Prepared

	// RowsByProp, JoinByProp, SizeByProp, DelRowsByProp, DelJoinByProp are
	// the five dispatch-matrix families from spec §4.4, each keyed by
	// dispatchKey{valueKind, mintimeKind, maxtimeKind}.
	RowsByProp, JoinByProp, SizeByProp, DelRowsByProp, DelJoinByProp map[dispatchKey]Prepared
}

// New builds a Catalogue for the given row table name and dialect. The
// blob table and trigger table names are derived from table as spec §3
// describes (table_blob) and §6 fixes (a dedicated "triggers" table).
func New(dialect *Dialect, table string) *Catalogue {
	c := &Catalogue{
		dialect:      dialect,
		table:        table,
		blob:         table + "_blob",
		triggerTable: "triggers",
	}

	c.IsTable = c.prep(dialect.TableExistsQuery, "")
	c.InitTable = c.prep(tmplInitTable, c.table)
	c.InitBlobTable = c.prep(tmplInitBlobTable, c.blob)
	c.InitIdenIdx = c.prep(tmplInitIdenIdx, c.table)
	c.InitPropIdx = c.prep(tmplInitPropIdx, c.table)
	c.InitStrvalIdx = c.prep(tmplInitStrvalIdx, c.table)
	c.InitIntvalIdx = c.prep(tmplInitIntvalIdx, c.table)
	c.InitBlobIdx = c.prep(tmplInitBlobTableIdx, c.blob)
	c.InitTriggerTable = c.prep(tmplTriggerTable, c.triggerTable)
	c.InitTriggerIdx = c.prep(tmplTriggerTableIdx, c.triggerTable)

	c.AddRow = c.prep(tmplAddRow, c.table)
	c.GetRowsByIden = c.prep(tmplGetRowsByIden, c.table)
	c.GetRowsByIdenProp = c.prep(tmplGetRowsByIdenProp, c.table)
	c.GetRowsByIdenPropInt = c.prep(tmplGetRowsByIdenPropInt, c.table)
	c.GetRowsByIdenPropStr = c.prep(tmplGetRowsByIdenPropStr, c.table)
	c.DelRowsByIden = c.prep(tmplDelRowsByIden, c.table)
	c.DelRowsByIdenProp = c.prep(tmplDelRowsByIdenProp, c.table)
	c.DelRowsByIdenPropInt = c.prep(tmplDelRowsByIdenPropInt, c.table)
	c.DelRowsByIdenPropStr = c.prep(tmplDelRowsByIdenPropStr, c.table)
	c.UpRowsByIdenPropInt = c.prep(tmplUpRowsByIdenPropInt, c.table)
	c.UpRowsByIdenPropStr = c.prep(tmplUpRowsByIdenPropStr, c.table)

	c.RowsByRange = c.prep(tmplRowsByRange, c.table)
	c.RowsByGe = c.prep(tmplRowsByGe, c.table)
	c.RowsByLe = c.prep(tmplRowsByLe, c.table)
	c.SizeByRange = c.prep(tmplSizeByRange, c.table)
	c.SizeByGe = c.prep(tmplSizeByGe, c.table)
	c.SizeByLe = c.prep(tmplSizeByLe, c.table)
	c.JoinByRangeInt = c.prep(tmplJoinByRangeInt, c.table)
	c.JoinByRangeStr = c.prep(tmplJoinByRangeStr, c.table)
	c.JoinByGe = c.prep(tmplJoinByGe, c.table)
	c.JoinByLe = c.prep(tmplJoinByLe, c.table)

	c.BlobSet = c.prep(dialect.Upsert("{{BLOB_TABLE}}", "k", "v", "{{KEY}}", "{{VALU}}"), c.blob)
	c.BlobGet = c.prep(tmplBlobGet, c.blob)
	c.BlobDel = c.prep(tmplBlobDel, c.blob)
	c.BlobGetKeys = c.prep(tmplBlobGetKeys, c.blob)

	c.RuleGet = c.prep(tmplRuleGet, c.triggerTable)
	c.RulePut = c.prep(dialect.Upsert("{{TABLE}}", "iden", "valu", "{{IDEN}}", "{{VALU}}"), c.triggerTable)
	c.RuleDel = c.prep(tmplRuleDel, c.triggerTable)
	c.RuleScan = c.prep(tmplRuleScan, c.triggerTable)

	rowsT, joinT, sizeT, delRowsT, delJoinT := buildFamilies()
	c.RowsByProp = c.prepFamily(rowsT)
	c.JoinByProp = c.prepFamily(joinT)
	c.SizeByProp = c.prepFamily(sizeT)
	c.DelRowsByProp = c.prepFamily(delRowsT)
	c.DelJoinByProp = c.prepFamily(delJoinT)

	return c
}

func (c *Catalogue) prepFamily(family propFamilyTemplates) map[dispatchKey]Prepared {
	out := make(map[dispatchKey]Prepared, len(family))
	for key, tmpl := range family {
		out[key] = c.prep(tmpl, c.table)
	}
	return out
}

// prep substitutes {{TABLE}}/{{BLOB_TABLE}} with table, {{BLOB_TYPE}}
// with this catalogue's dialect's opaque-bytes column type, and every
// {{NAME}} with this catalogue's dialect's positional bound-parameter
// token, recording the lowercase parameter name order for Prepared.Args.
func (c *Catalogue) prep(tmpl, table string) Prepared {
	sql := strings.ReplaceAll(tmpl, "{{TABLE}}", table)
	sql = strings.ReplaceAll(sql, "{{BLOB_TABLE}}", table)
	sql = strings.ReplaceAll(sql, "{{BLOB_TYPE}}", c.dialect.BlobType)

	var order []string
	idx := 0
	sql = placeholderRe.ReplaceAllStringFunc(sql, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		idx++
		order = append(order, strings.ToLower(name))
		return c.dialect.Placeholder(idx)
	})

	return Prepared{SQL: sql, ParamOrder: order}
}

// TableName, BlobTableName, and TriggerTableName expose the table names
// this catalogue was built for, for diagnostics such as
// hivestore.Store.PrintSchema.
func (c *Catalogue) TableName() string        { return c.table }
func (c *Catalogue) BlobTableName() string    { return c.blob }
func (c *Catalogue) TriggerTableName() string { return c.triggerTable }

// DialectName returns the name of the dialect this catalogue was built
// for (the database/sql driver name passed to sql.Open).
func (c *Catalogue) DialectName() string { return c.dialect.Name }

// Key builds a dispatchKey from runtime value/mintime/maxtime, for use
// against RowsByProp et al.
func Key(value, mintime, maxtime any) dispatchKey {
	return dispatchKey{hiverow.KindOf(value), hiverow.KindOf(mintime), hiverow.KindOf(maxtime)}
}

// LookupRowsByProp, LookupJoinByProp, LookupSizeByProp, LookupDelRowsByProp,
// and LookupDelJoinByProp resolve the prepared query for a runtime
// (value, mintime, maxtime) triple against the matching dispatch family.
// dispatchKey stays unexported; these spare a caller outside hivequery
// from indexing the five family maps with Key itself.
func (c *Catalogue) LookupRowsByProp(value, mintime, maxtime any) (Prepared, bool) {
	p, ok := c.RowsByProp[Key(value, mintime, maxtime)]
	return p, ok
}

func (c *Catalogue) LookupJoinByProp(value, mintime, maxtime any) (Prepared, bool) {
	p, ok := c.JoinByProp[Key(value, mintime, maxtime)]
	return p, ok
}

func (c *Catalogue) LookupSizeByProp(value, mintime, maxtime any) (Prepared, bool) {
	p, ok := c.SizeByProp[Key(value, mintime, maxtime)]
	return p, ok
}

func (c *Catalogue) LookupDelRowsByProp(value, mintime, maxtime any) (Prepared, bool) {
	p, ok := c.DelRowsByProp[Key(value, mintime, maxtime)]
	return p, ok
}

func (c *Catalogue) LookupDelJoinByProp(value, mintime, maxtime any) (Prepared, bool) {
	p, ok := c.DelJoinByProp[Key(value, mintime, maxtime)]
	return p, ok
}
