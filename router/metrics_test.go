package router

import (
	"testing"
)

func TestCacheMetrics_TokenReuseRate(t *testing.T) {
	m := newCacheMetrics()

	// 48 matched tokens routed against 96 tokens processed.
	m.recordRoute(48, "a")
	m.recordCompletion(96)

	stats, _ := m.snapshot()
	if stats.TokenReuseRate != 0.5 {
		t.Errorf("Expected token reuse rate 0.5, got %f", stats.TokenReuseRate)
	}
}

func TestCacheMetrics_HitIffMatchedTokensPositive(t *testing.T) {
	m := newCacheMetrics()

	m.recordRoute(0, "a")
	m.recordRoute(16, "a")
	m.recordRoute(0, "b")

	stats, _ := m.snapshot()
	if stats.TotalCacheHits != 1 || stats.TotalCacheMisses != 2 {
		t.Errorf("Expected 1 hit / 2 misses, got %d/%d", stats.TotalCacheHits, stats.TotalCacheMisses)
	}
	if got := stats.ByEndpoint["a"].CacheHits; got != 1 {
		t.Errorf("Expected endpoint a to have 1 hit, got %d", got)
	}
	if got := stats.ByEndpoint["b"].CacheMisses; got != 1 {
		t.Errorf("Expected endpoint b to have 1 miss, got %d", got)
	}
}

func TestCacheMetrics_SnapshotIsImmutable(t *testing.T) {
	m := newCacheMetrics()
	m.recordRoute(8, "a")

	first, _ := m.snapshot()
	first.ByEndpoint["injected"] = EndpointStats{}

	second, _ := m.snapshot()
	if _, ok := second.ByEndpoint["injected"]; ok {
		t.Errorf("Snapshot shared its endpoint map with the aggregator")
	}
}

func TestCacheMetrics_ClampedReleases(t *testing.T) {
	m := newCacheMetrics()
	m.recordClampedRelease()
	m.recordClampedRelease()

	if _, clamped := m.snapshot(); clamped != 2 {
		t.Errorf("Expected 2 clamped releases, got %d", clamped)
	}
}
