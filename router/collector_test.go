package router

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RegistersAndGathers(t *testing.T) {
	// GIVEN a router with one completed request behind a collector
	r := mustRouter(t, testConfig(2))
	d, err := r.RouteRequest(seqTokens(16), 16, "")
	require.NoError(t, err)
	require.NoError(t, r.CompleteRequest(d.WorkerID, seqTokens(16), 16))

	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(NewCollector(r)))

	// WHEN the registry is gathered
	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, mf := range families {
		if len(mf.GetMetric()) == 1 && len(mf.GetMetric()[0].GetLabel()) == 0 {
			m := mf.GetMetric()[0]
			if m.GetCounter() != nil {
				byName[mf.GetName()] = m.GetCounter().GetValue()
			} else if m.GetGauge() != nil {
				byName[mf.GetName()] = m.GetGauge().GetValue()
			}
		} else {
			byName[mf.GetName()] = float64(len(mf.GetMetric()))
		}
	}

	// THEN the scrape reflects the router state
	assert.Equal(t, 1.0, byName["kvrouter_cache_misses_total"])
	assert.Equal(t, 0.0, byName["kvrouter_cache_hits_total"])
	assert.Equal(t, 32.0, byName["kvrouter_tokens_processed_total"])
	assert.Equal(t, 16.0, byName["kvrouter_radix_tree_nodes"])
	// Per-worker families carry one series per worker.
	assert.Equal(t, 2.0, byName["kvrouter_worker_active_requests"])
	assert.Equal(t, 2.0, byName["kvrouter_worker_requests_total"])
}
