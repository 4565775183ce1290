package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for every item with at most workers in flight. Tasks report
// through their own result slots, so fn has no error return. Cancelling ctx
// stops new submissions; tasks already running bound themselves through the
// transport timeout.
func forEach[T any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T)) error {
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			fn(gctx, i, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
