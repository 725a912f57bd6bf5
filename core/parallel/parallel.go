// Package parallel splits row ranges across goroutines for per-row work on
// large tables.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the row count at or below which work runs sequentially.
const DefaultThreshold = 1000

// Parallelize divides items into one contiguous range per CPU core and calls
// fn for each range concurrently. fn must only touch its own range.
func Parallelize(items int, fn func(start, end int)) {
	_ = ParallelizeErr(items, func(start, end int) error {
		fn(start, end)
		return nil
	})
}

// ParallelizeErr is Parallelize for fallible work. It returns the first
// error; ranges already running are not interrupted.
func ParallelizeErr(items int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < items; start += chunk {
		end := start + chunk
		if end > items {
			end = items
		}
		g.Go(func() error { return fn(start, end) })
	}
	return g.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) directly when items does not
// exceed threshold and parallelizes otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
