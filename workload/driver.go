package workload

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mockllm/kvrouter/router"
)

// DriverConfig controls how the generated requests are pushed through the
// router.
type DriverConfig struct {
	Concurrency     int     // parallel client goroutines (must be > 0)
	AbandonFraction float64 // fraction of routed requests released instead of completed
	Seed            int64   // seed for the abandon coin flips
}

// Summary aggregates the driver's view of a run. The router's own GetStats
// is the authoritative reporting surface; this is the client-side tally.
type Summary struct {
	Routed      int            // requests routed
	Completed   int            // requests completed
	Abandoned   int            // requests released without completion
	PerWorker   map[int]int    // routing decisions per worker ID
	TokensSent  int64          // input tokens across routed requests
	ReuseTokens int64          // matched prefix tokens across routed requests
}

// Run routes every request through r across cfg.Concurrency goroutines,
// then completes (or, for the abandon fraction, releases) it. Every routed
// request is paired with exactly one completion or release, which is the
// caller obligation the router's counters depend on.
func Run(ctx context.Context, r *router.SmartRouter, reqs []Request, cfg DriverConfig) (Summary, error) {
	if cfg.Concurrency <= 0 {
		return Summary{}, fmt.Errorf("concurrency must be > 0, got %d", cfg.Concurrency)
	}
	if cfg.AbandonFraction < 0 || cfg.AbandonFraction > 1 {
		return Summary{}, fmt.Errorf("abandon fraction must be in [0, 1], got %f", cfg.AbandonFraction)
	}

	var mu sync.Mutex
	summary := Summary{PerWorker: make(map[int]int)}
	// rng is guarded by mu; rand.Rand is not safe for concurrent use.
	rng := rand.New(rand.NewSource(cfg.Seed))

	work := make(chan Request)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(work)
		for _, req := range reqs {
			select {
			case work <- req:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for req := range work {
				decision, err := r.RouteRequest(req.Tokens, req.EstimatedOutputTokens, req.Endpoint)
				if err != nil {
					return fmt.Errorf("route %s: %w", req.ID, err)
				}

				mu.Lock()
				summary.Routed++
				summary.PerWorker[decision.WorkerID]++
				summary.TokensSent += int64(len(req.Tokens))
				summary.ReuseTokens += int64(decision.MatchedTokens)
				abandon := rng.Float64() < cfg.AbandonFraction
				mu.Unlock()

				if abandon {
					if err := r.ReleaseRequest(decision.WorkerID); err != nil {
						return fmt.Errorf("release %s: %w", req.ID, err)
					}
					mu.Lock()
					summary.Abandoned++
					mu.Unlock()
					continue
				}
				if err := r.CompleteRequest(decision.WorkerID, req.Tokens, req.OutputTokens); err != nil {
					return fmt.Errorf("complete %s: %w", req.ID, err)
				}
				mu.Lock()
				summary.Completed++
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	logrus.Infof("workload done: routed=%d completed=%d abandoned=%d",
		summary.Routed, summary.Completed, summary.Abandoned)
	return summary, nil
}
