// Package router implements the cache-aware routing core of a simulated
// inference-serving cluster: a radix tree over token-block prefixes, a pool
// of simulated workers, and a smart router that scores workers by cache
// overlap, estimated decode cost, and load.
//
// The package has no internal goroutines. It is invoked synchronously by
// the host server's concurrent request handlers; every operation completes
// in time proportional to the token sequence length.
package router

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mockllm/kvrouter/router/internal/util"
)

// RoutingDecision is the immutable result of one route_request call.
// MatchedTokens is block-aligned; MatchedBlocks = MatchedTokens / BlockSize.
type RoutingDecision struct {
	WorkerID      int `json:"worker_id"`
	MatchedTokens int `json:"matched_tokens"`
	MatchedBlocks int `json:"matched_blocks"`
}

// SmartRouter owns the shared radix tree, worker pool, and metrics
// aggregator. Construct one per simulated cluster and pass it by reference;
// there is deliberately no package-level singleton, so the host server
// controls construction and teardown.
type SmartRouter struct {
	cfg     Config
	tree    *RadixTree
	pool    *WorkerPool
	metrics *cacheMetrics

	// mu serializes the score-and-reserve section of RouteRequest so that
	// two concurrent calls cannot pick the same worker against a stale
	// active_requests reading. The tree and pool stay independently safe;
	// this lock is only about making the reservation part of the decision.
	mu sync.Mutex
}

// NewSmartRouter validates cfg and builds the router with an empty tree and
// zeroed workers. A zero worker count fails here with ErrNoWorkersAvailable.
func NewSmartRouter(cfg Config) (*SmartRouter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid router config: %w", err)
	}
	r := &SmartRouter{
		cfg:     cfg,
		tree:    NewRadixTree(cfg.BlockSize, cfg.NodeTTL),
		pool:    NewWorkerPool(cfg.NumWorkers),
		metrics: newCacheMetrics(),
	}
	logrus.Debugf("smart router created: workers=%d block_size=%d kv_overlap_weight=%.2f load_balance_weight=%.2f",
		cfg.NumWorkers, cfg.BlockSize, cfg.KVOverlapWeight, cfg.LoadBalanceWeight)
	return r, nil
}

// Config returns the immutable configuration the router was built with.
func (r *SmartRouter) Config() Config { return r.cfg }

// Tree exposes the radix tree, primarily for host-driven eviction when a
// TTL is configured.
func (r *SmartRouter) Tree() *RadixTree { return r.tree }

// Pool exposes the worker pool for read-only inspection.
func (r *SmartRouter) Pool() *WorkerPool { return r.pool }

func validTokens(tokens []int) bool {
	for _, t := range tokens {
		if t < 0 {
			return false
		}
	}
	return true
}

// RouteRequest picks the worker that minimizes
//
//	cost(w) = kv_overlap_weight * prefill_blocks(w)
//	        + decode_blocks
//	        + load_balance_weight * active_requests(w)
//
// where prefill blocks are the request's uncached blocks for that worker
// and decode blocks are ceil(estimatedOutputTokens / block_size). Workers
// holding the longest cached prefix are the candidate set; with no cached
// overlap anywhere, every worker is a candidate and the formula degrades to
// pure load balancing. Ties break toward more matched blocks, then fewer
// active requests, then the lowest worker ID, so decisions are reproducible.
//
// The chosen worker's active_requests is incremented before returning: the
// reservation is part of the decision, and a concurrent RouteRequest
// observes the updated load. Every successful call must be paired with
// exactly one CompleteRequest or ReleaseRequest.
//
// endpoint is an opaque label used only for the per-endpoint metrics
// breakdown.
func (r *SmartRouter) RouteRequest(tokens []int, estimatedOutputTokens int, endpoint string) (RoutingDecision, error) {
	if estimatedOutputTokens < 0 || !validTokens(tokens) {
		return RoutingDecision{}, fmt.Errorf("route request: %w", ErrInvalidTokenSequence)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	match := r.tree.FindLongestPrefix(tokens)

	candidates := make([]int, 0, r.pool.Size())
	if len(match.Workers) > 0 {
		for id := range match.Workers {
			candidates = append(candidates, id)
		}
		sort.Ints(candidates)
	} else {
		// Cold start or no overlap: all workers eligible, same formula.
		for id := 0; id < r.pool.Size(); id++ {
			candidates = append(candidates, id)
		}
	}

	totalBlocks := util.CeilDiv(len(tokens), r.cfg.BlockSize)
	decodeBlocks := util.CeilDiv(estimatedOutputTokens, r.cfg.BlockSize)

	best := -1
	var bestCost float64
	var bestMatched, bestActive int64
	for _, id := range candidates {
		w := r.pool.Get(id)
		matchedBlocks := 0
		if _, ok := match.Workers[id]; ok {
			matchedBlocks = match.MatchedBlocks
		}
		prefillBlocks := totalBlocks - matchedBlocks
		active := w.ActiveRequests()
		cost := r.cfg.KVOverlapWeight*float64(prefillBlocks) +
			float64(decodeBlocks) +
			r.cfg.LoadBalanceWeight*float64(active)

		better := false
		switch {
		case best < 0 || cost < bestCost:
			better = true
		case cost == bestCost && int64(matchedBlocks) > bestMatched:
			better = true
		case cost == bestCost && int64(matchedBlocks) == bestMatched && active < bestActive:
			better = true
			// Candidates iterate in ascending ID order, so on a full tie
			// the lowest ID already won.
		}
		if better {
			best = id
			bestCost = cost
			bestMatched = int64(matchedBlocks)
			bestActive = active
		}
	}

	chosen := r.pool.Get(best)
	chosen.reserve()
	r.metrics.recordRoute(match.MatchedTokens, endpoint)

	logrus.Debugf("routed request: worker=%d matched_tokens=%d matched_blocks=%d cost=%.2f endpoint=%s",
		best, match.MatchedTokens, match.MatchedBlocks, bestCost, endpoint)

	return RoutingDecision{
		WorkerID:      best,
		MatchedTokens: match.MatchedTokens,
		MatchedBlocks: match.MatchedBlocks,
	}, nil
}

// CompleteRequest records that workerID finished a routed request. The full
// token sequence is inserted into the tree tagged with the worker, the
// worker's reservation is released (floored at zero), and its totals are
// advanced by len(tokens) + outputTokenCount tokens and the newly cached
// block count.
func (r *SmartRouter) CompleteRequest(workerID int, tokens []int, outputTokenCount int) error {
	if outputTokenCount < 0 || !validTokens(tokens) {
		return fmt.Errorf("complete request: %w", ErrInvalidTokenSequence)
	}
	w := r.pool.Get(workerID)
	if w == nil {
		return fmt.Errorf("complete request: worker %d: %w", workerID, ErrUnknownWorker)
	}

	newBlocks := r.tree.Insert(tokens, workerID)
	if w.release() {
		logrus.Warnf("complete request: active_requests for worker %d already zero", workerID)
		r.metrics.recordClampedRelease()
	}
	totalTokens := util.Len64(tokens) + int64(outputTokenCount)
	w.complete(totalTokens, int64(newBlocks))
	r.metrics.recordCompletion(totalTokens)
	return nil
}

// ReleaseRequest drops the reservation for a request that failed or was
// abandoned before completion. The tree and the worker's totals are left
// untouched. Releasing more than once clamps at zero and shows up in the
// clamped_releases metric rather than corrupting the counter.
func (r *SmartRouter) ReleaseRequest(workerID int) error {
	w := r.pool.Get(workerID)
	if w == nil {
		return fmt.Errorf("release request: worker %d: %w", workerID, ErrUnknownWorker)
	}
	if w.release() {
		logrus.Warnf("release request: active_requests for worker %d already zero", workerID)
		r.metrics.recordClampedRelease()
	}
	return nil
}
