package hashutil

import "runtime"

// result pairs a processed value with its original index to preserve ordering.
type result[T any] struct {
	index int
	value T
	err   error
}

// pool fans out work items to a fixed number of goroutine workers and
// collects results preserving the original input order. Hashing many
// independent files is embarrassingly parallel and carries none of the
// ordering constraints §5 imposes on check execution, so it is safe to
// parallelize even though the runner itself stays single-threaded.
type pool[T any] struct {
	concurrency int
}

// newPool creates a worker pool with the given concurrency.
// If concurrency <= 0, defaults to runtime.NumCPU().
func newPool[T any](concurrency int) *pool[T] {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &pool[T]{concurrency: concurrency}
}

// process distributes items across workers, applies fn to each, and returns
// results in the same order as the input slice. A per-item error does not
// abort the batch; callers inspect result.err for each index.
func (p *pool[T]) process(items []string, fn func(string) (T, error)) []result[T] {
	if len(items) == 0 {
		return nil
	}

	workers := p.concurrency
	if workers > len(items) {
		workers = len(items)
	}

	type job struct {
		index int
		item  string
	}

	jobs := make(chan job, len(items))
	results := make([]result[T], len(items))

	done := make(chan struct{}, workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := range jobs {
				val, err := fn(j.item)
				results[j.index] = result[T]{index: j.index, value: val, err: err}
			}
		}()
	}

	for i, item := range items {
		jobs <- job{index: i, item: item}
	}
	close(jobs)

	for w := 0; w < workers; w++ {
		<-done
	}

	return results
}
