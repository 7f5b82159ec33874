package hivequery

import (
	"strings"

	"github.com/hivegraph/hivecore/hiverow"
)

// Legal dispatch axes per spec §4.4: value ranges over {None, Int, Str},
// mintime/maxtime only ever {None, Int} since tstamp is always integer.
var (
	valueKinds = [3]hiverow.Kind{hiverow.KindNone, hiverow.KindInt, hiverow.KindStr}
	timeKinds  = [2]hiverow.Kind{hiverow.KindNone, hiverow.KindInt}
)

// propWhere renders the WHERE-clause body (no leading "WHERE") for one
// dispatch key. Callers compose it into SELECT/DELETE/COUNT/subquery shapes.
func propWhere(key dispatchKey) string {
	clauses := []string{"prop={{PROP}}"}

	switch key[0] {
	case hiverow.KindInt:
		clauses = append(clauses, "intval={{VALU}}")
	case hiverow.KindStr:
		clauses = append(clauses, "strval={{VALU}}")
	}

	if key[1] == hiverow.KindInt {
		clauses = append(clauses, "tstamp>={{MINTIME}}")
	}
	if key[2] == hiverow.KindInt {
		clauses = append(clauses, "tstamp<{{MAXTIME}}")
	}

	return strings.Join(clauses, " AND ")
}

// buildFamilies constructs the five precompiled dispatch-matrix families
// used by Row Operations: select rows, join rows, count, delete rows,
// delete join. Each has exactly the twelve legal (value, mintime, maxtime)
// combinations spec §4.4 enumerates.
func buildFamilies() (rows, join, size, delRows, delJoin propFamilyTemplates) {
	rows = make(propFamilyTemplates, 12)
	join = make(propFamilyTemplates, 12)
	size = make(propFamilyTemplates, 12)
	delRows = make(propFamilyTemplates, 12)
	delJoin = make(propFamilyTemplates, 12)

	const cols = "iden, prop, strval, intval, tstamp"

	for _, v := range valueKinds {
		for _, mn := range timeKinds {
			for _, mx := range timeKinds {
				key := dispatchKey{v, mn, mx}
				where := propWhere(key)

				rows[key] = "SELECT " + cols + " FROM {{TABLE}} WHERE " + where + " LIMIT {{LIMIT}}"
				// LIMIT on a bare COUNT(*) is a no-op (the aggregate always
				// returns one row); kept only so size[key]'s ParamOrder
				// matches rows[key]'s and both bind through the same Args
				// map. GetSizeByProp can therefore report more than
				// len(GetRowsByProp) once a prop has more matches than
				// DefaultLimit.
				size[key] = "SELECT COUNT(*) FROM {{TABLE}} WHERE " + where + " LIMIT {{LIMIT}}"
				delRows[key] = "DELETE FROM {{TABLE}} WHERE " + where
				join[key] = "SELECT " + cols + " FROM {{TABLE}} WHERE iden IN (SELECT iden FROM {{TABLE}} WHERE " + where + " LIMIT {{LIMIT}})"
				delJoin[key] = "DELETE FROM {{TABLE}} WHERE iden IN (SELECT iden FROM {{TABLE}} WHERE " + where + ")"
			}
		}
	}

	return rows, join, size, delRows, delJoin
}
