// Package fanout runs one operation per input concurrently and collects
// results in input order.
package fanout

import (
	"context"
	"sync"
)

// Result holds the outcome of one item's operation.
type Result[R any] struct {
	Value R
	Err   error
}

// Run applies fn to every item concurrently, bounded by limit in-flight
// operations (0 means unbounded), and returns one Result per item in the
// same order as items.
//
// Failures are isolated per item: one item's error never aborts its
// siblings. Cancelling ctx stops items that have not started; items already
// running see the cancellation through the ctx passed to fn.
func Run[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))

	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results[idx] = Result[R]{Err: ctx.Err()}
					return
				}
			} else if err := ctx.Err(); err != nil {
				results[idx] = Result[R]{Err: err}
				return
			}

			value, err := fn(ctx, it)
			results[idx] = Result[R]{Value: value, Err: err}
		}(i, item)
	}
	wg.Wait()

	return results
}
