package router

import (
	"sync"
)

// EndpointStats is the per-endpoint slice of the cache performance
// breakdown. Endpoints are opaque labels supplied by the caller; the router
// does not interpret them.
type EndpointStats struct {
	TotalRequests      int64   `json:"total_requests"`
	CacheHits          int64   `json:"cache_hits"`
	CacheMisses        int64   `json:"cache_misses"`
	CachedTokensReused int64   `json:"cached_tokens_reused"`
	AvgPrefixLength    float64 `json:"avg_prefix_length"`
}

// CachePerformanceStats is the cache_performance section of the reporting
// schema. Field names and types are consumed verbatim by an external
// dashboard and must not change.
type CachePerformanceStats struct {
	CacheHitRate         float64                  `json:"cache_hit_rate"`
	TokenReuseRate       float64                  `json:"token_reuse_rate"`
	TotalCacheHits       int64                    `json:"total_cache_hits"`
	TotalCacheMisses     int64                    `json:"total_cache_misses"`
	TotalTokensProcessed int64                    `json:"total_tokens_processed"`
	CachedTokensReused   int64                    `json:"cached_tokens_reused"`
	AvgPrefixLength      float64                  `json:"avg_prefix_length"`
	ByEndpoint           map[string]EndpointStats `json:"by_endpoint"`
}

// cacheMetrics accumulates routing and completion events. A request counts
// as a hit iff its matched prefix length was greater than zero. A plain
// mutex guards everything: updates are a handful of integer adds, and the
// per-endpoint map needs the lock anyway.
type cacheMetrics struct {
	mu sync.Mutex

	cacheHits          int64
	cacheMisses        int64
	tokensProcessed    int64 // input + output tokens, counted at completion
	cachedTokensReused int64 // sum of matched_tokens across routed requests
	matchedTokensSum   int64 // numerator of the running avg prefix length
	routedRequests     int64 // denominator of the running avg prefix length
	clampedReleases    int64 // active_requests decrements floored at zero

	byEndpoint map[string]*endpointCounters
}

type endpointCounters struct {
	requests   int64
	hits       int64
	misses     int64
	reused     int64
	matchedSum int64
}

func newCacheMetrics() *cacheMetrics {
	return &cacheMetrics{byEndpoint: make(map[string]*endpointCounters)}
}

// recordRoute accumulates one routing decision.
func (m *cacheMetrics) recordRoute(matchedTokens int, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hit := matchedTokens > 0
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
	m.cachedTokensReused += int64(matchedTokens)
	m.matchedTokensSum += int64(matchedTokens)
	m.routedRequests++

	ep, ok := m.byEndpoint[endpoint]
	if !ok {
		ep = &endpointCounters{}
		m.byEndpoint[endpoint] = ep
	}
	ep.requests++
	if hit {
		ep.hits++
	} else {
		ep.misses++
	}
	ep.reused += int64(matchedTokens)
	ep.matchedSum += int64(matchedTokens)
}

// recordCompletion accumulates the token volume of one finished request.
func (m *cacheMetrics) recordCompletion(totalTokens int64) {
	m.mu.Lock()
	m.tokensProcessed += totalTokens
	m.mu.Unlock()
}

// recordClampedRelease notes an active_requests decrement that was floored
// at zero. Such clamps are caller bugs (double release, release without
// route); the counter exists so they are observable instead of silent.
func (m *cacheMetrics) recordClampedRelease() {
	m.mu.Lock()
	m.clampedReleases++
	m.mu.Unlock()
}

// snapshot returns an immutable CachePerformanceStats plus the clamp count.
func (m *cacheMetrics) snapshot() (CachePerformanceStats, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := CachePerformanceStats{
		TotalCacheHits:       m.cacheHits,
		TotalCacheMisses:     m.cacheMisses,
		TotalTokensProcessed: m.tokensProcessed,
		CachedTokensReused:   m.cachedTokensReused,
		ByEndpoint:           make(map[string]EndpointStats, len(m.byEndpoint)),
	}
	if total := m.cacheHits + m.cacheMisses; total > 0 {
		stats.CacheHitRate = float64(m.cacheHits) / float64(total)
	}
	if m.tokensProcessed > 0 {
		stats.TokenReuseRate = float64(m.cachedTokensReused) / float64(m.tokensProcessed)
	}
	if m.routedRequests > 0 {
		stats.AvgPrefixLength = float64(m.matchedTokensSum) / float64(m.routedRequests)
	}
	for label, ep := range m.byEndpoint {
		es := EndpointStats{
			TotalRequests:      ep.requests,
			CacheHits:          ep.hits,
			CacheMisses:        ep.misses,
			CachedTokensReused: ep.reused,
		}
		if ep.requests > 0 {
			es.AvgPrefixLength = float64(ep.matchedSum) / float64(ep.requests)
		}
		stats.ByEndpoint[label] = es
	}
	return stats, m.clampedReleases
}
