// Package workpool runs bounded fan-out over a slice of inputs.
package workpool

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
)

// ErrInvalidSize is returned when the pool size is below one.
var ErrInvalidSize = errors.New("workpool: size must be at least 1")

// Map applies fn to every input with at most size calls in flight. Results
// keep input order. Every task runs to completion; the error of the lowest
// failing index is returned.
func Map[In, Out any](ctx context.Context, size int, inputs []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}
	if len(inputs) == 0 {
		return []Out{}, nil
	}

	pool, err := ants.NewPool(min(size, len(inputs)))
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	results := make([]Out, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = fn(ctx, in)
		}); err != nil {
			wg.Done()
			errs[i] = errors.Wrap(err, "submit task to worker pool")
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, errors.Wrapf(err, "task %d", i)
		}
	}
	return results, nil
}
