// Package async provides bounded concurrent execution with panic recovery
// and a definite completion barrier.
package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// Batch processes a slice of items concurrently with at most workers
// goroutines and returns only when every submitted item has finished.
// Items not yet started when ctx is cancelled are skipped. A panic in fn is
// recovered and reported as that item's error; it never takes down other
// items.
func Batch[T any](ctx context.Context, items []T, workers int, timeout time.Duration,
	fn func(context.Context, T) error) []error {

	if workers <= 0 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
		sem  = make(chan struct{}, workers)
	)

	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			record(fmt.Errorf("batch aborted: %w", ctx.Err()))
			wg.Wait()
			return errs
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()

			itemCtx := ctx
			var cancel context.CancelFunc
			if timeout > 0 {
				itemCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			defer func() {
				if r := recover(); r != nil {
					record(fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
				}
			}()

			if err := fn(itemCtx, item); err != nil {
				record(err)
			}
		}(item)
	}

	wg.Wait()
	return errs
}
