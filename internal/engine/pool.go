// Package engine contains the round orchestrator: the concurrency core that
// schedules probes, drives the stateless sweep and converges stateful
// tokens round by round.
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// workerPool wraps ants with an in-flight semaphore. The semaphore is the
// campaign's explicit backpressure ceiling: at most cap(inflight) probes are
// dispatched-but-unresolved at any moment, independent of pool size.
type workerPool struct {
	pool     *ants.Pool
	inflight chan struct{}

	submitted atomic.Int64
	completed atomic.Int64
}

func newWorkerPool(size, maxInFlight int) (*workerPool, error) {
	pool, err := ants.NewPool(size, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}
	if maxInFlight <= 0 {
		maxInFlight = size
	}
	return &workerPool{
		pool:     pool,
		inflight: make(chan struct{}, maxInFlight),
	}, nil
}

// submit blocks until an in-flight slot drains, then schedules the task.
// wg is the caller's barrier; it is marked done when the task completes.
func (wp *workerPool) submit(wg *sync.WaitGroup, task func()) error {
	wp.inflight <- struct{}{}
	wp.submitted.Add(1)
	wg.Add(1)

	err := wp.pool.Submit(func() {
		defer func() {
			<-wp.inflight
			wp.completed.Add(1)
			wg.Done()
		}()
		task()
	})
	if err != nil {
		<-wp.inflight
		wg.Done()
		return err
	}
	return nil
}

// inFlight returns the number of dispatched-but-unresolved probes.
func (wp *workerPool) inFlight() int {
	return len(wp.inflight)
}

func (wp *workerPool) release() {
	wp.pool.Release()
}
