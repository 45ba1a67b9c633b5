package workload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockllm/kvrouter/router"
)

func testRouter(t *testing.T) *router.SmartRouter {
	t.Helper()
	r, err := router.NewSmartRouter(router.DefaultConfig())
	require.NoError(t, err)
	return r
}

func TestRun_CompletesEveryRequest(t *testing.T) {
	// GIVEN a generated workload and a fresh router
	r := testRouter(t)
	reqs, err := Generate(testWorkloadConfig())
	require.NoError(t, err)

	// WHEN the driver runs it with no abandonment
	summary, err := Run(context.Background(), r, reqs, DriverConfig{
		Concurrency: 4,
		Seed:        42,
	})
	require.NoError(t, err)

	// THEN every request was routed and completed exactly once
	assert.Equal(t, len(reqs), summary.Routed)
	assert.Equal(t, len(reqs), summary.Completed)
	assert.Equal(t, 0, summary.Abandoned)

	stats := r.GetStats()
	var total int64
	for id, w := range stats.SmartRouter.Workers {
		assert.Zerof(t, w.ActiveRequests, "worker %d left in flight", id)
		total += w.TotalRequests
	}
	assert.Equal(t, int64(len(reqs)), total)
	assert.Equal(t, int64(0), stats.SmartRouter.ClampedReleases)
}

func TestRun_AbandonAll_LeavesCacheAndTotalsUntouched(t *testing.T) {
	r := testRouter(t)
	reqs, err := Generate(testWorkloadConfig())
	require.NoError(t, err)

	summary, err := Run(context.Background(), r, reqs, DriverConfig{
		Concurrency:     4,
		AbandonFraction: 1.0,
		Seed:            42,
	})
	require.NoError(t, err)

	assert.Equal(t, len(reqs), summary.Abandoned)
	assert.Equal(t, 0, summary.Completed)

	stats := r.GetStats()
	for id, w := range stats.SmartRouter.Workers {
		assert.Zerof(t, w.ActiveRequests, "worker %d left in flight", id)
		assert.Zerof(t, w.TotalRequests, "worker %d counted abandoned work", id)
	}
	assert.Equal(t, int64(0), stats.SmartRouter.RadixTree.TotalNodes)
}

func TestRun_SharedPrefixesProduceCacheHits(t *testing.T) {
	// GIVEN a workload dominated by two shared prefix groups
	r := testRouter(t)
	cfg := testWorkloadConfig()
	cfg.MaxPrompts = 40
	cfg.PrefixTokens = 64
	reqs, err := Generate(cfg)
	require.NoError(t, err)

	// WHEN routed sequentially so every completion precedes the next route
	_, err = Run(context.Background(), r, reqs, DriverConfig{
		Concurrency: 1,
		Seed:        42,
	})
	require.NoError(t, err)

	// THEN later group members hit the prefix their predecessors cached
	cp := r.GetStats().CachePerformance
	assert.Positive(t, cp.TotalCacheHits)
	assert.Positive(t, cp.CachedTokensReused)
}

func TestRun_InvalidDriverConfig(t *testing.T) {
	r := testRouter(t)
	reqs, err := Generate(testWorkloadConfig())
	require.NoError(t, err)

	_, err = Run(context.Background(), r, reqs, DriverConfig{Concurrency: 0})
	assert.Error(t, err)

	_, err = Run(context.Background(), r, reqs, DriverConfig{Concurrency: 1, AbandonFraction: 1.5})
	assert.Error(t, err)
}

func TestRun_CanceledContext_Stops(t *testing.T) {
	r := testRouter(t)
	cfg := testWorkloadConfig()
	cfg.MaxPrompts = 500
	reqs, err := Generate(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Run(ctx, r, reqs, DriverConfig{Concurrency: 2, Seed: 42})
	assert.ErrorIs(t, err, context.Canceled)
}
