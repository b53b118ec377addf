// Package workerpool runs a batch of independent tasks under a fixed concurrency
// ceiling and reports a result or an error for every item.
package workerpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item: either Value or Err is meaningful.
type Result[R any] struct {
	Value R
	Err   error
}

// OK reports whether the item succeeded.
func (r Result[R]) OK() bool { return r.Err == nil }

// Run applies fn to every item with at most limit calls in flight and returns
// once all of them have finished. Results are index-aligned with items.
// A failing or panicking item never cancels its siblings.
func Run[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			results[i] = call(ctx, item, fn)
			return nil
		})
	}

	// Tasks never return errors; Wait is only the completion barrier.
	_ = g.Wait()

	return results
}

func call[T, R any](ctx context.Context, item T, fn func(ctx context.Context, item T) (R, error)) (res Result[R]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[R]{Err: fmt.Errorf("task panicked: %v", p)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result[R]{Err: err}
	}

	v, err := fn(ctx, item)
	return Result[R]{Value: v, Err: err}
}
