// Package pool runs independent blocking calls on a bounded number of
// goroutines and joins them before returning.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const (
	// SlotWorkers bounds per-slot gear searches.
	SlotWorkers = 6
	// FetchWorkers bounds recipe lookups and batched price fetches.
	FetchWorkers = 8
)

// Map calls fn for every input with at most limit calls in flight. Results
// keep the order of inputs. The first error cancels the context handed to the
// remaining calls and is returned once every started call has finished.
func Map[T, R any](ctx context.Context, limit int, inputs []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}
	if limit <= 0 {
		limit = 1
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, in := range inputs {
		i, in := i, in
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r, err := fn(egCtx, in)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
