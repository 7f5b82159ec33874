package hivetrigger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hivegraph/hivecore/hiveerr"
	"github.com/hivegraph/hivecore/hiverow"
	"github.com/hivegraph/hivecore/hivestore"
)

// Executor runs a fired rule's stored query against whatever engine the
// caller wires in — the role node.storm(self.storm, ...) plays in the
// original. vars carries condition-specific bindings (tag:add/tag:del
// bind "tag", matching Rule.execute's vars={'tag': tag}).
type Executor interface {
	Execute(ctx context.Context, rule Rule, node hiverow.Iden, vars map[string]any) error
}

// QueryValidator exposes only a parse-check capability against the
// external query engine, per the design note in spec §9: Add must
// reject an uncompilable storm query before it is ever persisted, but
// the trigger engine must not depend on the query engine's full
// execution surface to do so. A nil Validator on Registry skips the
// check, matching Rule.execute's own "if present" treatment of the
// auth module it resolves users through.
type QueryValidator interface {
	Compile(query string) error
}

type tagKey struct {
	Form string
	Tag  string
}

// Registry is the trigger subsystem: a persisted rule store plus the
// in-memory dispatch indexes built from it. Grounded on the Triggers
// class's __init__ and its seven index structures.
type Registry struct {
	store     *hivestore.Store
	executor  Executor
	validator QueryValidator
	log       *zap.SugaredLogger

	mu    sync.RWMutex
	rules map[hiverow.Iden]Rule

	nodeAdd map[string][]hiverow.Iden
	nodeDel map[string][]hiverow.Iden
	propSet map[string][]hiverow.Iden

	tagAdd map[tagKey][]hiverow.Iden
	tagDel map[tagKey][]hiverow.Iden

	tagAddGlobs map[string]*globIndex
	tagDelGlobs map[string]*globIndex
}

// NewRegistry constructs an empty registry bound to store and executor.
// Call Load to warm it from previously persisted rules.
func NewRegistry(store *hivestore.Store, executor Executor, log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{
		store:       store,
		executor:    executor,
		log:         log,
		rules:       make(map[hiverow.Iden]Rule),
		nodeAdd:     make(map[string][]hiverow.Iden),
		nodeDel:     make(map[string][]hiverow.Iden),
		propSet:     make(map[string][]hiverow.Iden),
		tagAdd:      make(map[tagKey][]hiverow.Iden),
		tagDel:      make(map[tagKey][]hiverow.Iden),
		tagAddGlobs: make(map[string]*globIndex),
		tagDelGlobs: make(map[string]*globIndex),
	}
}

// SetValidator wires a query-compile check into Add and Mod. Call it
// once after construction, before the graph engine's query parser is
// available the registry simply skips validation.
func (r *Registry) SetValidator(v QueryValidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validator = v
}

// Load scans every persisted rule and indexes it, skipping and logging
// any record that fails to decode or validate rather than aborting
// startup — the same resilience _load_all gives a corrupted record.
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.store.ScanRules(ctx)
	if err != nil {
		return fmt.Errorf("hivetrigger: loading rules: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := 0
	for iden, data := range records {
		rule, err := decode(data)
		if err != nil {
			r.log.Warnw("invalid rule record in storage", "iden", iden.String(), "err", err)
			continue
		}
		if err := rule.Validate(); err != nil {
			r.log.Warnw("invalid rule record in storage", "iden", iden.String(), "err", err)
			continue
		}
		if err := r.indexLocked(iden, rule); err != nil {
			r.log.Warnw("invalid rule record in storage", "iden", iden.String(), "err", err)
			continue
		}
		loaded++
	}
	r.log.Infow("loaded triggers", "count", loaded, "total", len(records))
	return nil
}

// Add validates, persists, and indexes a new rule, returning its iden.
func (r *Registry) Add(ctx context.Context, user string, cond Condition, query string, form, tag, prop string) (hiverow.Iden, error) {
	var zero hiverow.Iden
	if query == "" {
		return zero, hiveerr.ErrEmptyQuery
	}

	rule := Rule{Ver: 0, Cond: cond, User: user, Query: query, Form: form, Tag: tag, Prop: prop}
	if err := rule.Validate(); err != nil {
		return zero, err
	}
	if err := r.checkQuery(query); err != nil {
		return zero, err
	}

	iden := hiverow.NewIden()

	data, err := encode(rule)
	if err != nil {
		return zero, err
	}
	if err := r.store.PutRule(ctx, iden, data); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.indexLocked(iden, rule); err != nil {
		return zero, err
	}
	return iden, nil
}

// Delete removes a rule from storage and every index it was filed under.
func (r *Registry) Delete(ctx context.Context, iden hiverow.Iden) error {
	r.mu.Lock()
	rule, ok := r.rules[iden]
	if !ok {
		r.mu.Unlock()
		return hiveerr.ErrNoSuchIden
	}
	delete(r.rules, iden)
	r.unindexLocked(iden, rule)
	r.mu.Unlock()

	return r.store.DelRule(ctx, iden)
}

// Get returns the rule stored under iden.
func (r *Registry) Get(iden hiverow.Iden) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[iden]
	if !ok {
		return Rule{}, hiveerr.ErrNoSuchIden
	}
	return rule, nil
}

// RuleRecord pairs a rule with its identity, the shape List returns.
type RuleRecord struct {
	Iden hiverow.Iden
	Rule Rule
}

// List returns every registered rule.
func (r *Registry) List() []RuleRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RuleRecord, 0, len(r.rules))
	for iden, rule := range r.rules {
		out = append(out, RuleRecord{Iden: iden, Rule: rule})
	}
	return out
}

// Mod replaces the stored query of an existing rule in place, the rest
// of the rule (cond/form/tag/prop) unchanged.
func (r *Registry) Mod(ctx context.Context, iden hiverow.Iden, query string) error {
	if err := r.checkQuery(query); err != nil {
		return err
	}

	r.mu.Lock()
	rule, ok := r.rules[iden]
	if !ok {
		r.mu.Unlock()
		return hiveerr.ErrNoSuchIden
	}
	rule.Query = query
	r.rules[iden] = rule
	r.mu.Unlock()

	data, err := encode(rule)
	if err != nil {
		return err
	}
	return r.store.PutRule(ctx, iden, data)
}

// checkQuery compiles query against the wired validator, if any, without
// executing it — the parse-only check spec §4.8 requires before a rule's
// storm text is persisted.
func (r *Registry) checkQuery(query string) error {
	r.mu.RLock()
	v := r.validator
	r.mu.RUnlock()
	if v == nil {
		return nil
	}
	if err := v.Compile(query); err != nil {
		return fmt.Errorf("hivetrigger: invalid query: %w", err)
	}
	return nil
}

// indexLocked files iden/rule into the appropriate dispatch index. Caller
// holds r.mu.
func (r *Registry) indexLocked(iden hiverow.Iden, rule Rule) error {
	r.rules[iden] = rule

	switch rule.Cond {
	case CondNodeAdd:
		r.nodeAdd[rule.Form] = append(r.nodeAdd[rule.Form], iden)
	case CondNodeDel:
		r.nodeDel[rule.Form] = append(r.nodeDel[rule.Form], iden)
	case CondPropSet:
		r.propSet[rule.Prop] = append(r.propSet[rule.Prop], iden)
	case CondTagAdd:
		if isGlob(rule.Tag) {
			idx := r.tagAddGlobs[rule.Form]
			if idx == nil {
				idx = &globIndex{}
				r.tagAddGlobs[rule.Form] = idx
			}
			return idx.add(rule.Tag, iden)
		}
		key := tagKey{Form: rule.Form, Tag: rule.Tag}
		r.tagAdd[key] = append(r.tagAdd[key], iden)
	case CondTagDel:
		if isGlob(rule.Tag) {
			idx := r.tagDelGlobs[rule.Form]
			if idx == nil {
				idx = &globIndex{}
				r.tagDelGlobs[rule.Form] = idx
			}
			return idx.add(rule.Tag, iden)
		}
		key := tagKey{Form: rule.Form, Tag: rule.Tag}
		r.tagDel[key] = append(r.tagDel[key], iden)
	default:
		return hiveerr.NoSuchCondError{Cond: string(rule.Cond)}
	}
	return nil
}

// unindexLocked removes iden/rule from its dispatch index. Caller holds
// r.mu.
func (r *Registry) unindexLocked(iden hiverow.Iden, rule Rule) {
	switch rule.Cond {
	case CondNodeAdd:
		r.nodeAdd[rule.Form] = removeIden(r.nodeAdd[rule.Form], iden)
	case CondNodeDel:
		r.nodeDel[rule.Form] = removeIden(r.nodeDel[rule.Form], iden)
	case CondPropSet:
		r.propSet[rule.Prop] = removeIden(r.propSet[rule.Prop], iden)
	case CondTagAdd:
		if isGlob(rule.Tag) {
			if idx := r.tagAddGlobs[rule.Form]; idx != nil {
				idx.remove(rule.Tag, iden)
			}
			return
		}
		key := tagKey{Form: rule.Form, Tag: rule.Tag}
		r.tagAdd[key] = removeIden(r.tagAdd[key], iden)
	case CondTagDel:
		if isGlob(rule.Tag) {
			if idx := r.tagDelGlobs[rule.Form]; idx != nil {
				idx.remove(rule.Tag, iden)
			}
			return
		}
		key := tagKey{Form: rule.Form, Tag: rule.Tag}
		r.tagDel[key] = removeIden(r.tagDel[key], iden)
	}
}

func removeIden(idens []hiverow.Iden, target hiverow.Iden) []hiverow.Iden {
	out := idens[:0]
	for _, id := range idens {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
