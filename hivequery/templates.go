package hivequery

import "github.com/hivegraph/hivecore/hiverow"

// Raw query templates. Three placeholder classes are substituted once at
// Catalogue construction (see Catalogue.prep): {{TABLE}}/{{BLOB_TABLE}} become the
// configured table names, {{BLOB_TYPE}} becomes the dialect's opaque-bytes
// column type, and {{NAME}} (uppercase) becomes the dialect's Nth
// bound-parameter token for the lowercase arg name. Runtime values are
// always bound, never concatenated into the string.

const (
	tmplInitTable = `CREATE TABLE {{TABLE}} (
		iden VARCHAR,
		prop VARCHAR,
		strval TEXT,
		intval BIGINT,
		tstamp BIGINT
	)`
	tmplInitBlobTable = `CREATE TABLE {{BLOB_TABLE}} (
		k VARCHAR,
		v {{BLOB_TYPE}}
	)`
	tmplInitIdenIdx      = `CREATE INDEX {{TABLE}}_iden_idx ON {{TABLE}} (iden, prop)`
	tmplInitPropIdx      = `CREATE INDEX {{TABLE}}_prop_time_idx ON {{TABLE}} (prop, tstamp)`
	tmplInitStrvalIdx    = `CREATE INDEX {{TABLE}}_strval_idx ON {{TABLE}} (prop, strval, tstamp)`
	tmplInitIntvalIdx    = `CREATE INDEX {{TABLE}}_intval_idx ON {{TABLE}} (prop, intval, tstamp)`
	tmplInitBlobTableIdx = `CREATE UNIQUE INDEX {{BLOB_TABLE}}_idx ON {{BLOB_TABLE}} (k)`

	tmplTriggerTable = `CREATE TABLE {{TABLE}} (
		iden VARCHAR,
		valu {{BLOB_TYPE}}
	)`
	tmplTriggerTableIdx = `CREATE UNIQUE INDEX {{TABLE}}_idx ON {{TABLE}} (iden)`

	tmplAddRow = `INSERT INTO {{TABLE}} (iden, prop, strval, intval, tstamp) VALUES ({{IDEN}}, {{PROP}}, {{STRVAL}}, {{INTVAL}}, {{TSTAMP}})`

	tmplGetRowsByIden         = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden={{IDEN}}`
	tmplGetRowsByIdenProp     = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden={{IDEN}} AND prop={{PROP}}`
	tmplGetRowsByIdenPropInt  = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden={{IDEN}} AND prop={{PROP}} AND intval={{VALU}}`
	tmplGetRowsByIdenPropStr  = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden={{IDEN}} AND prop={{PROP}} AND strval={{VALU}}`
	tmplDelRowsByIden         = `DELETE FROM {{TABLE}} WHERE iden={{IDEN}}`
	tmplDelRowsByIdenProp     = `DELETE FROM {{TABLE}} WHERE iden={{IDEN}} AND prop={{PROP}}`
	tmplDelRowsByIdenPropInt  = `DELETE FROM {{TABLE}} WHERE iden={{IDEN}} AND prop={{PROP}} AND intval={{VALU}}`
	tmplDelRowsByIdenPropStr  = `DELETE FROM {{TABLE}} WHERE iden={{IDEN}} AND prop={{PROP}} AND strval={{VALU}}`
	tmplUpRowsByIdenPropInt   = `UPDATE {{TABLE}} SET intval={{VALU}} WHERE iden={{IDEN}} AND prop={{PROP}}`
	tmplUpRowsByIdenPropStr   = `UPDATE {{TABLE}} SET strval={{VALU}} WHERE iden={{IDEN}} AND prop={{PROP}}`

	tmplRowsByRange = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE prop={{PROP}} AND intval >= {{MINVALU}} AND intval < {{MAXVALU}} LIMIT {{LIMIT}}`
	tmplRowsByGe    = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE prop={{PROP}} AND intval >= {{VALU}} LIMIT {{LIMIT}}`
	tmplRowsByLe    = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE prop={{PROP}} AND intval <= {{VALU}} LIMIT {{LIMIT}}`
	tmplSizeByRange = `SELECT COUNT(*) FROM {{TABLE}} WHERE prop={{PROP}} AND intval >= {{MINVALU}} AND intval < {{MAXVALU}} LIMIT {{LIMIT}}`
	tmplSizeByGe    = `SELECT COUNT(*) FROM {{TABLE}} WHERE prop={{PROP}} AND intval >= {{VALU}} LIMIT {{LIMIT}}`
	tmplSizeByLe    = `SELECT COUNT(*) FROM {{TABLE}} WHERE prop={{PROP}} AND intval <= {{VALU}} LIMIT {{LIMIT}}`

	tmplJoinByRangeInt = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden IN (SELECT iden FROM {{TABLE}} WHERE prop={{PROP}} AND intval >= {{MINVALU}} AND intval < {{MAXVALU}} LIMIT {{LIMIT}})`
	tmplJoinByRangeStr = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden IN (SELECT iden FROM {{TABLE}} WHERE prop={{PROP}} AND strval >= {{MINVALU}} AND strval < {{MAXVALU}} LIMIT {{LIMIT}})`
	tmplJoinByGe       = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden IN (SELECT iden FROM {{TABLE}} WHERE prop={{PROP}} AND intval >= {{VALU}} LIMIT {{LIMIT}})`
	tmplJoinByLe       = `SELECT iden, prop, strval, intval, tstamp FROM {{TABLE}} WHERE iden IN (SELECT iden FROM {{TABLE}} WHERE prop={{PROP}} AND intval <= {{VALU}} LIMIT {{LIMIT}})`

	tmplBlobGet     = `SELECT v FROM {{BLOB_TABLE}} WHERE k={{KEY}}`
	tmplBlobDel     = `DELETE FROM {{BLOB_TABLE}} WHERE k={{KEY}}`
	tmplBlobGetKeys = `SELECT k FROM {{BLOB_TABLE}}`

	tmplRuleGet  = `SELECT valu FROM {{TABLE}} WHERE iden={{IDEN}}`
	tmplRuleDel  = `DELETE FROM {{TABLE}} WHERE iden={{IDEN}}`
	tmplRuleScan = `SELECT iden, valu FROM {{TABLE}}`
)

// dispatchKey is the three-axis key from spec §4.4: (typeof(value),
// typeof(mintime), typeof(maxtime)), each in {None, Int, Str} — though
// mintime/maxtime are only ever None or Int in practice (tstamp is always
// an integer column).
type dispatchKey [3]hiverow.Kind

// propFamilyTemplates holds the twelve dispatchKey variants for one query
// family (rows/join/size/del-rows/del-join by prop). Built once per
// Catalogue by buildFamilies (dispatch.go) from New, never per call.
type propFamilyTemplates map[dispatchKey]string
