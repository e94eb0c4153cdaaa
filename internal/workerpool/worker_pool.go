// Package workerpool provides the fixed-size pool that runs per-row flow
// solves and per-pair sequence jobs.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers       int
	TotalJobs     int64
	CompletedJobs int64
	ActiveWorkers int64
}

// WorkerPool manages concurrent processing jobs. Workers are started once
// and reused until Close.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
	mu       sync.RWMutex
	closed   bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.activeWorkers.Add(1)
		job()
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
		wp.wg.Done()
	}
}

// Submit adds a job to the worker pool queue. It reports false if the
// pool is closed.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.Start()
	wp.wg.Add(1)
	wp.totalJobs.Add(1)
	wp.jobQueue <- job
	return true
}

// Wait waits for all submitted jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// GetStats returns the current job counters.
func (wp *WorkerPool) GetStats() Stats {
	return Stats{
		Workers:       wp.workers,
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}

// Close shuts down the worker pool. Queued jobs still run. Calling Close
// more than once is safe.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}

// ParallelFor splits [0, n) into contiguous chunks and runs fn(start, end)
// for each chunk on the pool, blocking until every chunk is done. It runs
// fn(0, n) inline when the pool is closed or one chunk suffices. ParallelFor
// must not be called from inside a pool job.
func (wp *WorkerPool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	chunks := min(wp.workers, n)
	if chunks == 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + chunks - 1) / chunks
	var barrier sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		barrier.Add(1)
		s, e := start, end
		if !wp.Submit(func() {
			defer barrier.Done()
			fn(s, e)
		}) {
			fn(s, e)
			barrier.Done()
		}
	}
	barrier.Wait()
}
