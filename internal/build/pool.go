package build

import (
	"context"
	"sync"
)

// forEach calls fn for every index in [0, n) on at most workers goroutines.
// Dispatch stops when ctx is done; calls already started run to completion.
func forEach(ctx context.Context, workers, n int, fn func(i int)) error {
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

dispatch:
	for i := range n {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
	return ctx.Err()
}
