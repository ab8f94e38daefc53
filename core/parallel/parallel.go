package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides the specified total number (items) among workers and
// executes the specified function (fn) in parallel for each range
// (start, end). The worker count defaults to the number of CPU cores;
// pass jobs > 0 to cap it (the "parallel jobs" knob forwarded by the
// cross-validation helpers).
func Parallelize(items, jobs int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if jobs > 0 && jobs < numWorkers {
		numWorkers = jobs
	}
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}

	// Calculate the number of items each worker handles (ceiling division)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		// Skip if there's no range to handle
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of
// items exceeds the threshold. If below threshold, normal sequential
// processing is performed.
func ParallelizeWithThreshold(items, threshold, jobs int, fn func(start, end int)) {
	if items <= threshold || jobs == 1 {
		// Sequential processing when below threshold
		fn(0, items)
		return
	}

	Parallelize(items, jobs, fn)
}
