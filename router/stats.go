package router

// ConfigStats echoes the routing configuration in the reporting schema.
type ConfigStats struct {
	KVOverlapWeight   float64 `json:"kv_overlap_weight"`
	LoadBalanceWeight float64 `json:"load_balance_weight"`
	BlockSize         int     `json:"block_size"`
	NumWorkers        int     `json:"num_workers"`
}

// SmartRouterStats is the smart_router section of the reporting schema.
// ClampedReleases is additive to the documented schema: it counts
// active_requests decrements that were floored at zero, surfacing
// double-release caller bugs.
type SmartRouterStats struct {
	Workers         map[int]WorkerStats `json:"workers"`
	RadixTree       TreeStats           `json:"radix_tree"`
	Config          ConfigStats         `json:"config"`
	ClampedReleases int64               `json:"clamped_releases"`
}

// Stats is the full reporting snapshot. The external dashboard consumes
// this structure verbatim; field names and types are stable.
type Stats struct {
	CachePerformance CachePerformanceStats `json:"cache_performance"`
	SmartRouter      SmartRouterStats      `json:"smart_router"`
}

// GetStats assembles an immutable snapshot of cache performance, per-worker
// load, tree size, and configuration. Counters are read atomically but the
// snapshot as a whole is not a single atomic cut across components; for a
// simulation reporting surface that is sufficient.
func (r *SmartRouter) GetStats() Stats {
	cache, clamped := r.metrics.snapshot()
	return Stats{
		CachePerformance: cache,
		SmartRouter: SmartRouterStats{
			Workers:   r.pool.Snapshot(),
			RadixTree: r.tree.Stats(),
			Config: ConfigStats{
				KVOverlapWeight:   r.cfg.KVOverlapWeight,
				LoadBalanceWeight: r.cfg.LoadBalanceWeight,
				BlockSize:         r.cfg.BlockSize,
				NumWorkers:        r.cfg.NumWorkers,
			},
			ClampedReleases: clamped,
		},
	}
}
