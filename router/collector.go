package router

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the router's reporting surface as Prometheus metrics.
// It reads GetStats on every scrape, so it needs no update hooks in the
// routing path. Register it on the host server's registry:
//
//	registry.MustRegister(router.NewCollector(r))
type Collector struct {
	router *SmartRouter

	cacheHits       *prometheus.Desc
	cacheMisses     *prometheus.Desc
	cacheHitRate    *prometheus.Desc
	tokensProcessed *prometheus.Desc
	tokensReused    *prometheus.Desc
	avgPrefixLen    *prometheus.Desc
	workerActive    *prometheus.Desc
	workerTotal     *prometheus.Desc
	workerBlocks    *prometheus.Desc
	workerTokens    *prometheus.Desc
	treeNodes       *prometheus.Desc
	treeBlocks      *prometheus.Desc
	clampedReleases *prometheus.Desc
}

// NewCollector creates a Collector for r. One collector per router; the
// worker label carries the worker ID.
func NewCollector(r *SmartRouter) *Collector {
	return &Collector{
		router: r,
		cacheHits: prometheus.NewDesc("kvrouter_cache_hits_total",
			"Routed requests whose matched prefix length was greater than zero", nil, nil),
		cacheMisses: prometheus.NewDesc("kvrouter_cache_misses_total",
			"Routed requests with no cached prefix overlap", nil, nil),
		cacheHitRate: prometheus.NewDesc("kvrouter_cache_hit_rate",
			"Fraction of routed requests that hit the prefix cache", nil, nil),
		tokensProcessed: prometheus.NewDesc("kvrouter_tokens_processed_total",
			"Input plus output tokens across completed requests", nil, nil),
		tokensReused: prometheus.NewDesc("kvrouter_cached_tokens_reused_total",
			"Sum of matched prefix tokens across routed requests", nil, nil),
		avgPrefixLen: prometheus.NewDesc("kvrouter_avg_prefix_length",
			"Running average matched prefix length per routed request", nil, nil),
		workerActive: prometheus.NewDesc("kvrouter_worker_active_requests",
			"In-flight requests reserved on a worker", []string{"worker"}, nil),
		workerTotal: prometheus.NewDesc("kvrouter_worker_requests_total",
			"Completed requests per worker", []string{"worker"}, nil),
		workerBlocks: prometheus.NewDesc("kvrouter_worker_cached_blocks",
			"Block boundaries cached per worker", []string{"worker"}, nil),
		workerTokens: prometheus.NewDesc("kvrouter_worker_tokens_processed_total",
			"Tokens processed per worker", []string{"worker"}, nil),
		treeNodes: prometheus.NewDesc("kvrouter_radix_tree_nodes",
			"Nodes in the prefix radix tree", nil, nil),
		treeBlocks: prometheus.NewDesc("kvrouter_radix_tree_cached_blocks",
			"(block boundary, worker) cache marks in the radix tree", nil, nil),
		clampedReleases: prometheus.NewDesc("kvrouter_clamped_releases_total",
			"active_requests decrements floored at zero (caller double-release bugs)", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cacheHits
	ch <- c.cacheMisses
	ch <- c.cacheHitRate
	ch <- c.tokensProcessed
	ch <- c.tokensReused
	ch <- c.avgPrefixLen
	ch <- c.workerActive
	ch <- c.workerTotal
	ch <- c.workerBlocks
	ch <- c.workerTokens
	ch <- c.treeNodes
	ch <- c.treeBlocks
	ch <- c.clampedReleases
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.router.GetStats()
	cp := stats.CachePerformance

	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(cp.TotalCacheHits))
	ch <- prometheus.MustNewConstMetric(c.cacheMisses, prometheus.CounterValue, float64(cp.TotalCacheMisses))
	ch <- prometheus.MustNewConstMetric(c.cacheHitRate, prometheus.GaugeValue, cp.CacheHitRate)
	ch <- prometheus.MustNewConstMetric(c.tokensProcessed, prometheus.CounterValue, float64(cp.TotalTokensProcessed))
	ch <- prometheus.MustNewConstMetric(c.tokensReused, prometheus.CounterValue, float64(cp.CachedTokensReused))
	ch <- prometheus.MustNewConstMetric(c.avgPrefixLen, prometheus.GaugeValue, cp.AvgPrefixLength)

	for id, w := range stats.SmartRouter.Workers {
		label := strconv.Itoa(id)
		ch <- prometheus.MustNewConstMetric(c.workerActive, prometheus.GaugeValue, float64(w.ActiveRequests), label)
		ch <- prometheus.MustNewConstMetric(c.workerTotal, prometheus.CounterValue, float64(w.TotalRequests), label)
		ch <- prometheus.MustNewConstMetric(c.workerBlocks, prometheus.GaugeValue, float64(w.CachedBlocks), label)
		ch <- prometheus.MustNewConstMetric(c.workerTokens, prometheus.CounterValue, float64(w.TokensProcessed), label)
	}

	tree := stats.SmartRouter.RadixTree
	ch <- prometheus.MustNewConstMetric(c.treeNodes, prometheus.GaugeValue, float64(tree.TotalNodes))
	ch <- prometheus.MustNewConstMetric(c.treeBlocks, prometheus.GaugeValue, float64(tree.TotalCachedBlocks))
	ch <- prometheus.MustNewConstMetric(c.clampedReleases, prometheus.CounterValue, float64(stats.SmartRouter.ClampedReleases))
}
