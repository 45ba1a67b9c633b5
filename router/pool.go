package router

import (
	"sync/atomic"
)

// Worker holds the mutable counters for one simulated worker. Workers are
// created once at pool construction and never destroyed; only the counters
// change. All counters are atomics so concurrent route/complete/release
// paths never read-modify-write racily.
type Worker struct {
	id              int
	activeRequests  atomic.Int64
	totalRequests   atomic.Int64
	cachedBlocks    atomic.Int64
	tokensProcessed atomic.Int64
}

// ID returns the worker's stable identifier.
func (w *Worker) ID() int { return w.id }

// ActiveRequests returns the current in-flight request count.
func (w *Worker) ActiveRequests() int64 { return w.activeRequests.Load() }

// reserve increments the in-flight count. Called under the router's
// decision lock so the reservation is visible before RouteRequest returns.
func (w *Worker) reserve() { w.activeRequests.Add(1) }

// release decrements the in-flight count, flooring at zero. Returns true
// when the decrement was clamped, i.e. the caller released a request that
// was never routed (or released twice). CAS loop rather than a blind Add so
// the counter can never be observed negative.
func (w *Worker) release() (clamped bool) {
	for {
		cur := w.activeRequests.Load()
		if cur <= 0 {
			return true
		}
		if w.activeRequests.CompareAndSwap(cur, cur-1) {
			return false
		}
	}
}

// WorkerStats is a point-in-time copy of one worker's counters. Field names
// follow the external reporting schema.
type WorkerStats struct {
	ActiveRequests  int64 `json:"active_requests"`
	TotalRequests   int64 `json:"total_requests"`
	CachedBlocks    int64 `json:"cached_blocks"`
	TokensProcessed int64 `json:"tokens_processed"`
}

// WorkerPool is a thin, thread-safe container of Worker records. IDs are
// assigned 0..n-1 in creation order and are stable for the process
// lifetime. The pool has no routing logic of its own.
type WorkerPool struct {
	workers []*Worker
}

// NewWorkerPool creates numWorkers workers with zeroed counters.
// Panics if numWorkers is not positive; Config.Validate rejects that case
// (ErrNoWorkersAvailable) before any pool is built.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		panic("NewWorkerPool: numWorkers must be > 0")
	}
	workers := make([]*Worker, numWorkers)
	for i := range workers {
		workers[i] = &Worker{id: i}
	}
	return &WorkerPool{workers: workers}
}

// Size returns the fixed worker count.
func (p *WorkerPool) Size() int { return len(p.workers) }

// Get returns the worker with the given ID, or nil if the ID is out of
// range.
func (p *WorkerPool) Get(id int) *Worker {
	if id < 0 || id >= len(p.workers) {
		return nil
	}
	return p.workers[id]
}

// Workers returns the workers in ID order. The slice is shared; callers
// must not modify it.
func (p *WorkerPool) Workers() []*Worker { return p.workers }

// complete applies the completion-side counter updates for one request:
// total requests, tokens processed (input + output), and newly cached
// blocks.
func (w *Worker) complete(tokens int64, newBlocks int64) {
	w.totalRequests.Add(1)
	w.tokensProcessed.Add(tokens)
	w.cachedBlocks.Add(newBlocks)
}

// Snapshot returns a copy of every worker's counters keyed by worker ID.
func (p *WorkerPool) Snapshot() map[int]WorkerStats {
	snap := make(map[int]WorkerStats, len(p.workers))
	for _, w := range p.workers {
		snap[w.id] = WorkerStats{
			ActiveRequests:  w.activeRequests.Load(),
			TotalRequests:   w.totalRequests.Load(),
			CachedBlocks:    w.cachedBlocks.Load(),
			TokensProcessed: w.tokensProcessed.Load(),
		}
	}
	return snap
}
