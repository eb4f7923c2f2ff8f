package tsclust

import "sync"

// parallelRange splits [0, n) into contiguous chunks and runs fn on each
// chunk in its own goroutine. Chunks do not overlap, so fn may write to
// per-index slots without synchronization. workers <= 1 runs fn(0, n) inline.
//
// Only deterministic, RNG-free work goes through here (covariance assembly,
// predictive-density accumulation); every random draw stays on the single
// sampler goroutine so a fixed seed reproduces the chain bit for bit.
func parallelRange(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n <= 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	per := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * per
		end := start + per
		if end > n {
			end = n
		}
		if start >= n {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
