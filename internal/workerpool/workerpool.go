// Package workerpool runs an index range across a fixed number of
// goroutines, one per GOMAXPROCS, each striding over every Nth index.
// This is the teacher's own concurrency idiom for per-cell work
// (run.go's Calculations: `for ii := pp; ii < len(d.Cells); ii +=
// nprocs`), reused here for the only operations spec §5 allows to run
// out of order: the purely element-wise binary operators in package
// gdx. Every flood-fill and topological kernel in gdx/algo stays
// single-threaded, since their correctness depends on discovery order.
package workerpool

import (
	"runtime"
	"sync"
)

// Run calls fn(i) for every i in [0, n), distributing the calls across
// runtime.GOMAXPROCS(0) goroutines. fn must be safe to call
// concurrently for different i and must not depend on call order.
func Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	if nprocs <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < n; i += nprocs {
				fn(i)
			}
		}(pp)
	}
	wg.Wait()
}
