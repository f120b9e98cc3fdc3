// Package settle runs a function over a slice concurrently and reports every
// outcome, so one failing item never hides the results of the others.
package settle

import (
	"context"

	"github.com/sourcegraph/conc/iter"
)

// Result is the outcome of one item.
type Result[R any] struct {
	Value R
	Err   error
}

// All calls fn for every item concurrently and waits for all of them. The
// returned results are in input order.
func All[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	return iter.Map(items, func(item *T) Result[R] {
		v, err := fn(ctx, *item)
		return Result[R]{Value: v, Err: err}
	})
}

// Fulfilled keeps the values of the successful results, in order.
func Fulfilled[R any](results []Result[R]) []R {
	out := make([]R, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Map is All followed by Fulfilled.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) []R {
	return Fulfilled(All(ctx, items, fn))
}
