package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// runIndexed runs fn for every index in [0, n) on the pool and returns the results in index
// order, regardless of completion order.
//
// The first error wins and is returned as soon as it is reported. Sibling tasks already
// submitted are not cancelled; they run to completion and their results are discarded.
// The context is checked before each submission and ends the wait, it does not interrupt
// a task that is already running. A nil pool runs fn sequentially on the caller.
//
// fn must not call runIndexed on the same pool, since a task waiting on its own pool can
// starve the workers.
//
// Parameters:
//   - ctx: the context that bounds submission and waiting
//   - pool: the worker pool, or nil for sequential execution
//   - n: the number of tasks
//   - fn: the task body, called with the task index
//
// Returns:
//   - []R: one result per index
//   - error: the first task error, a recovered panic, or the context error
func runIndexed[R any](ctx context.Context, pool worker.DynamicWorkerPool, n int, fn func(i int) (R, error)) ([]R, error) {
	results := make([]R, n)
	if n == 0 {
		return results, nil
	}

	if pool == nil {
		for i := range n {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(i)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	// Buffered so the first failing task never blocks; later failures are dropped.
	errCh := make(chan error, 1)
	report := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	var wg sync.WaitGroup
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		idx := i
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (res any, err error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("task %d panicked: %v", idx, r)
						report(err)
					}
				}()

				out, err := fn(idx)
				if err != nil {
					report(err)
					return nil, err
				}
				results[idx] = out
				return out, nil
			},
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case err := <-errCh:
		return nil, err
	case <-done:
		select {
		case err := <-errCh:
			return nil, err
		default:
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
