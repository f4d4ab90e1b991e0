// Package parallel provides the fork-join loop used by the transform stages.
//
// Work is split into contiguous chunks, one per worker. Every chunk writes a disjoint
// output range, so the result never depends on the number of workers.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Threads normalizes a requested worker count. Values <= 0 select runtime.NumCPU().
func Threads(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// For splits [0,n) into at most threads contiguous chunks and runs fn on each.
// It returns after all chunks completed.
func For(threads, n int, fn func(start, end int)) {
	_ = ForErr(threads, n, func(start, end int) error {
		fn(start, end)
		return nil
	})
}

// ForErr is For with error propagation. The first non-nil error is returned.
func ForErr(threads, n int, fn func(start, end int) error) error {
	if n <= 0 {
		return nil
	}
	workers := min(Threads(threads), n)
	if workers == 1 {
		return fn(0, n)
	}

	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			return fn(start, end)
		})
	}
	return g.Wait()
}
