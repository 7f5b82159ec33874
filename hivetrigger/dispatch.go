package hivetrigger

import (
	"context"
	"errors"

	"github.com/hivegraph/hivecore/hiverow"
)

// RunNodeAdd fires every node:add rule registered for form.
func (r *Registry) RunNodeAdd(ctx context.Context, node hiverow.Iden, form string) error {
	ctx, err := enterDispatch(ctx)
	if err != nil {
		return err
	}
	for _, iden := range r.snapshot(r.nodeAdd, form) {
		if err := r.fire(ctx, iden, node, nil); err != nil {
			return err
		}
	}
	return nil
}

// RunNodeDel fires every node:del rule registered for form.
func (r *Registry) RunNodeDel(ctx context.Context, node hiverow.Iden, form string) error {
	ctx, err := enterDispatch(ctx)
	if err != nil {
		return err
	}
	for _, iden := range r.snapshot(r.nodeDel, form) {
		if err := r.fire(ctx, iden, node, nil); err != nil {
			return err
		}
	}
	return nil
}

// RunPropSet fires every prop:set rule registered for prop.
func (r *Registry) RunPropSet(ctx context.Context, node hiverow.Iden, prop string) error {
	ctx, err := enterDispatch(ctx)
	if err != nil {
		return err
	}
	for _, iden := range r.snapshot(r.propSet, prop) {
		if err := r.fire(ctx, iden, node, nil); err != nil {
			return err
		}
	}
	return nil
}

// RunTagAdd fires every tag:add rule matching (form, tag), checking
// form-specific exact, form-agnostic exact, form-specific globs, and
// form-agnostic globs in that order — the same four lookups runTagAdd
// performs.
func (r *Registry) RunTagAdd(ctx context.Context, node hiverow.Iden, form, tag string) error {
	ctx, err := enterDispatch(ctx)
	if err != nil {
		return err
	}
	vars := map[string]any{"tag": tag}

	r.mu.RLock()
	idens := append([]hiverow.Iden{}, r.tagAdd[tagKey{Form: form, Tag: tag}]...)
	idens = append(idens, r.tagAdd[tagKey{Form: "", Tag: tag}]...)
	idens = append(idens, r.tagAddGlobs[form].get(tag)...)
	idens = append(idens, r.tagAddGlobs[""].get(tag)...)
	r.mu.RUnlock()

	for _, iden := range idens {
		if err := r.fire(ctx, iden, node, vars); err != nil {
			return err
		}
	}
	return nil
}

// RunTagDel mirrors RunTagAdd for tag:del rules.
func (r *Registry) RunTagDel(ctx context.Context, node hiverow.Iden, form, tag string) error {
	ctx, err := enterDispatch(ctx)
	if err != nil {
		return err
	}
	vars := map[string]any{"tag": tag}

	r.mu.RLock()
	idens := append([]hiverow.Iden{}, r.tagDel[tagKey{Form: form, Tag: tag}]...)
	idens = append(idens, r.tagDel[tagKey{Form: "", Tag: tag}]...)
	idens = append(idens, r.tagDelGlobs[form].get(tag)...)
	idens = append(idens, r.tagDelGlobs[""].get(tag)...)
	r.mu.RUnlock()

	for _, iden := range idens {
		if err := r.fire(ctx, iden, node, vars); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) snapshot(index map[string][]hiverow.Iden, key string) []hiverow.Iden {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]hiverow.Iden{}, index[key]...)
}

// fire runs one rule's query. Every execution error is logged and
// swallowed so one bad rule never blocks the rest of the dispatch — the
// same isolation Rule.execute's broad except gives the original — except
// a cooperative-cancellation-shaped error, which propagates to the
// caller instead, aborting the remaining rules at this dispatch level.
func (r *Registry) fire(ctx context.Context, iden hiverow.Iden, node hiverow.Iden, vars map[string]any) error {
	r.mu.RLock()
	rule, ok := r.rules[iden]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	if r.executor == nil {
		return nil
	}
	err := r.executor.Execute(ctx, rule, node, vars)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	r.log.Warnw("trigger execution failed", "iden", iden.String(), "cond", rule.Cond, "user", rule.User, "err", err)
	return nil
}
