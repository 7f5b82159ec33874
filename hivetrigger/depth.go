package hivetrigger

import (
	"context"

	"github.com/hivegraph/hivecore/hiveerr"
)

// maxRecursionDepth matches the original's hardcoded 64-deep trigger
// recursion cutoff.
const maxRecursionDepth = 64

type depthKey struct{}

// enterDispatch increments the task-local trigger-recursion depth carried
// on ctx, rejecting once it exceeds maxRecursionDepth. context.Context
// stands in for the original's contextvars.ContextVar: depth threaded
// explicitly through the call chain plays the same role the Python
// runtime does implicitly within one task.
func enterDispatch(ctx context.Context) (context.Context, error) {
	depth, _ := ctx.Value(depthKey{}).(int)
	if depth >= maxRecursionDepth {
		return nil, hiveerr.ErrRecursionLimitHit
	}
	return context.WithValue(ctx, depthKey{}, depth+1), nil
}
