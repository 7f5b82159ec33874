// Package hivetrigger implements the reactive rule engine: a registry of
// stored Rule records indexed for O(1) dispatch by condition, and a
// depth-bounded dispatcher that runs them in response to row-store
// events. Grounded throughout on trigger.py's Triggers/Rule classes.
package hivetrigger

import (
	"github.com/hivegraph/hivecore/hiveerr"
)

// Condition is one of the five events a Rule can fire on.
type Condition string

const (
	CondNodeAdd Condition = "node:add"
	CondNodeDel Condition = "node:del"
	CondPropSet Condition = "prop:set"
	CondTagAdd  Condition = "tag:add"
	CondTagDel  Condition = "tag:del"
)

// Conditions is the legal condition set, mirroring the original's
// Conditions frozenset.
var Conditions = map[Condition]bool{
	CondNodeAdd: true,
	CondNodeDel: true,
	CondPropSet: true,
	CondTagAdd:  true,
	CondTagDel:  true,
}

// Rule is a single trigger record. Which of Form/Tag/Prop are populated
// depends on Cond: node rules carry Form, prop:set rules carry Prop, and
// tag rules carry Tag plus an optional Form — Validate enforces the
// table below, read directly off Rule.__post_init__.
type Rule struct {
	Ver   int
	Cond  Condition
	User  string
	Query string
	Form  string
	Tag   string
	Prop  string
}

// Validate enforces the required/forbidden field table for each
// condition. An empty string means the field is unset (Go's zero value
// standing in for the original's Optional[...] = None).
func (r Rule) Validate() error {
	if r.Ver != 0 {
		return hiveerr.BadOptValuError{Field: "ver", Reason: "unexpected rule version"}
	}
	if !Conditions[r.Cond] {
		return hiveerr.BadOptValuError{Field: "cond", Reason: "invalid trigger condition"}
	}

	switch r.Cond {
	case CondNodeAdd, CondNodeDel:
		if r.Form == "" {
			return hiveerr.BadOptValuError{Field: "form", Reason: "form must be present for node:add or node:del"}
		}
		if r.Tag != "" {
			return hiveerr.BadOptValuError{Field: "tag", Reason: "tag must not be present for node:add or node:del"}
		}
	case CondPropSet:
		if r.Form != "" || r.Tag != "" {
			return hiveerr.BadOptValuError{Field: "form", Reason: "form and tag must not be present for prop:set"}
		}
		if r.Prop == "" {
			return hiveerr.BadOptValuError{Field: "prop", Reason: "missing prop parameter"}
		}
	case CondTagAdd, CondTagDel:
		if r.Tag == "" {
			return hiveerr.BadOptValuError{Field: "tag", Reason: "missing tag"}
		}
	}

	if r.Prop != "" && r.Cond != CondPropSet {
		return hiveerr.BadOptValuError{Field: "prop", Reason: "prop parameter invalid"}
	}

	return nil
}

// isGlob reports whether tag carries a glob wildcard, the same '*' check
// _load_rule uses to route into the globs index instead of the exact one.
func isGlob(tag string) bool {
	for _, r := range tag {
		if r == '*' {
			return true
		}
	}
	return false
}
