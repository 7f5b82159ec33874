package hivetrigger

import (
	"context"
	"errors"
	"testing"

	"github.com/hivegraph/hivecore/hiveerr"
)

func TestEnterDispatchIncrementsDepth(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < maxRecursionDepth; i++ {
		next, err := enterDispatch(ctx)
		if err != nil {
			t.Fatalf("enterDispatch at depth %d: %v", i, err)
		}
		ctx = next
	}
}

func TestEnterDispatchRejectsPastLimit(t *testing.T) {
	ctx := context.Background()
	var err error
	for i := 0; i <= maxRecursionDepth+1; i++ {
		ctx, err = enterDispatch(ctx)
		if err != nil {
			break
		}
	}
	if !errors.Is(err, hiveerr.ErrRecursionLimitHit) {
		t.Fatalf("expected ErrRecursionLimitHit, got %v", err)
	}
}
