// Package dataflow provides small channel-based pipeline stages: a source, a
// concurrent map/filter, and terminal collectors. Stages honor context
// cancellation and are composed by plain channel passing.
package dataflow

import (
	"context"
	"sync"
	"time"
)

// From emits the given items on a new channel and closes it.
func From[T any](ctx context.Context, items ...T) <-chan T {
	return FromSlice(ctx, items)
}

// FromSlice emits the slice's items on a new channel and closes it.
func FromSlice[T any](ctx context.Context, items []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Map applies fn to every item from in. Items whose fn fails after the
// configured retries are dropped (after consulting the error handler, if any).
// With one worker (the default) output order matches input order; with more
// workers ordering is not guaranteed.
func Map[T, U any](ctx context.Context, in <-chan T, fn func(T) (U, error), opts ...Option) <-chan U {
	cfg := apply(opts)
	out := make(chan U, cfg.bufferSize)

	var wg sync.WaitGroup
	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-in:
					if !ok {
						return
					}
					result, err := runWithRetry(ctx, cfg, item, fn)
					if err != nil {
						if cfg.errorHandler != nil {
							cfg.errorHandler(err)
						}
						continue
					}
					select {
					case out <- result:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Filter forwards only the items for which pred returns true.
func Filter[T any](ctx context.Context, in <-chan T, pred func(T) bool, opts ...Option) <-chan T {
	cfg := apply(opts)
	out := make(chan T, cfg.bufferSize)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-in:
				if !ok {
					return
				}
				if !pred(item) {
					continue
				}
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Collect drains in into a slice. It returns what was received so far when
// the context is cancelled.
func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := []T{}
	for {
		select {
		case <-ctx.Done():
			return out
		case item, ok := <-in:
			if !ok {
				return out
			}
			out = append(out, item)
		}
	}
}

// ForEach invokes fn for every item from in. The first fn error stops
// consumption and is returned.
func ForEach[T any](ctx context.Context, in <-chan T, fn func(T) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-in:
			if !ok {
				return nil
			}
			if err := fn(item); err != nil {
				return err
			}
		}
	}
}

func runWithRetry[T, U any](ctx context.Context, cfg *config, item T, fn func(T) (U, error)) (U, error) {
	var zero U
	var lastErr error

	attempts := cfg.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && cfg.backoff != nil {
			select {
			case <-time.After(cfg.backoff(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
		result, err := fn(item)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return zero, lastErr
}
