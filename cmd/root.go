package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mockllm/kvrouter/router"
	"github.com/mockllm/kvrouter/workload"
)

var (
	// Router configuration flags
	logLevel          string        // Log verbosity level
	configPath        string        // Path to YAML router configuration file
	kvOverlapWeight   float64       // Weight on uncached prefill blocks in the cost function
	loadBalanceWeight float64       // Weight on per-worker in-flight requests
	blockSize         int           // Tokens per cache block
	numWorkers        int           // Number of simulated workers
	vocabSize         int           // Tokenizer vocabulary bound
	nodeTTL           time.Duration // Radix tree idle-node TTL (0 = never evict)

	// Workload generation flags
	seed              int64 // Seed for random request generation
	maxPrompts        int   // Number of requests
	prefixGroups      int   // Distinct shared prefixes across the workload
	prefixTokens      int   // Shared prefix token count
	promptTokensMean  int   // Average prompt token count
	promptTokensStdev int   // Stdev prompt token count
	promptTokensMin   int   // Min prompt token count
	promptTokensMax   int   // Max prompt token count
	outputTokensMean  int   // Average output token count
	outputTokensStdev int   // Stdev output token count
	outputTokensMin   int   // Min output token count
	outputTokensMax   int   // Max output token count

	// Driver flags
	concurrency     int     // Parallel client goroutines
	abandonFraction float64 // Fraction of routed requests released instead of completed

	// Reporting flags
	metricsAddr string // Address for the Prometheus /metrics endpoint ("" = disabled)
	resultsPath string // File to save the stats snapshot to
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "kvrouter",
	Short: "Cache-aware smart router core for simulated LLM serving",
}

// runCmd drives a synthetic workload through the smart router and prints
// the resulting stats snapshot.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Route a synthetic workload and report cache statistics",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := router.NewConfig(kvOverlapWeight, loadBalanceWeight,
			blockSize, numWorkers, vocabSize, nodeTTL)

		// File values apply first; flags the user set explicitly win.
		if configPath != "" {
			file, err := router.LoadConfigFile(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load router config: %v", err)
			}
			fromFile, err := file.Apply(router.DefaultConfig())
			if err != nil {
				logrus.Fatalf("Invalid router config: %v", err)
			}
			if !cmd.Flags().Changed("kv-overlap-weight") {
				cfg.KVOverlapWeight = fromFile.KVOverlapWeight
			}
			if !cmd.Flags().Changed("load-balance-weight") {
				cfg.LoadBalanceWeight = fromFile.LoadBalanceWeight
			}
			if !cmd.Flags().Changed("block-size") {
				cfg.BlockSize = fromFile.BlockSize
			}
			if !cmd.Flags().Changed("num-workers") {
				cfg.NumWorkers = fromFile.NumWorkers
			}
			if !cmd.Flags().Changed("vocab-size") {
				cfg.VocabSize = fromFile.VocabSize
			}
			if !cmd.Flags().Changed("node-ttl") {
				cfg.NodeTTL = fromFile.NodeTTL
			}
		}

		r, err := router.NewSmartRouter(cfg)
		if err != nil {
			logrus.Fatalf("Failed to create router: %v", err)
		}

		if metricsAddr != "" {
			registry := prometheus.NewRegistry()
			registry.MustRegister(router.NewCollector(r))
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
				logrus.Infof("Serving Prometheus metrics on %s/metrics", metricsAddr)
				if err := http.ListenAndServe(metricsAddr, mux); err != nil {
					logrus.Errorf("Metrics server stopped: %v", err)
				}
			}()
		}

		wcfg := workload.NewConfig(maxPrompts, prefixGroups, prefixTokens,
			promptTokensMean, promptTokensStdev, promptTokensMin, promptTokensMax,
			outputTokensMean, outputTokensStdev, outputTokensMin, outputTokensMax,
			cfg.VocabSize, nil, seed)
		reqs, err := workload.Generate(wcfg)
		if err != nil {
			logrus.Fatalf("Failed to generate workload: %v", err)
		}

		logrus.Infof("Routing %d requests across %d workers (block_size=%d, concurrency=%d)",
			len(reqs), cfg.NumWorkers, cfg.BlockSize, concurrency)

		startTime := time.Now()
		summary, err := workload.Run(context.Background(), r, reqs, workload.DriverConfig{
			Concurrency:     concurrency,
			AbandonFraction: abandonFraction,
			Seed:            seed,
		})
		if err != nil {
			logrus.Fatalf("Workload failed: %v", err)
		}

		fmt.Printf("=== Workload Summary ===\n")
		fmt.Printf("Routed: %d, Completed: %d, Abandoned: %d, Duration: %s\n",
			summary.Routed, summary.Completed, summary.Abandoned, time.Since(startTime).Round(time.Millisecond))
		workerIDs := make([]int, 0, len(summary.PerWorker))
		for id := range summary.PerWorker {
			workerIDs = append(workerIDs, id)
		}
		sort.Ints(workerIDs)
		for _, id := range workerIDs {
			fmt.Printf("  worker %d: %d requests\n", id, summary.PerWorker[id])
		}

		stats := r.GetStats()
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			logrus.Fatalf("Failed to marshal stats: %v", err)
		}
		fmt.Println("=== Router Stats ===")
		fmt.Println(string(data))

		if resultsPath != "" {
			if err := os.WriteFile(resultsPath, data, 0644); err != nil {
				logrus.Fatalf("Failed to write results: %v", err)
			}
			fmt.Printf("\nStats written to: %s\n", resultsPath)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML router configuration file")

	// Router configuration
	runCmd.Flags().Float64Var(&kvOverlapWeight, "kv-overlap-weight", router.DefaultKVOverlapWeight, "Weight on uncached prefill blocks in the routing cost")
	runCmd.Flags().Float64Var(&loadBalanceWeight, "load-balance-weight", router.DefaultLoadBalanceWeight, "Weight on per-worker active requests in the routing cost")
	runCmd.Flags().IntVar(&blockSize, "block-size", router.DefaultBlockSize, "Number of tokens per cache block")
	runCmd.Flags().IntVar(&numWorkers, "num-workers", router.DefaultNumWorkers, "Number of simulated workers")
	runCmd.Flags().IntVar(&vocabSize, "vocab-size", router.DefaultVocabSize, "Tokenizer vocabulary bound")
	runCmd.Flags().DurationVar(&nodeTTL, "node-ttl", 0, "Radix tree idle-node TTL (0 = never evict)")

	// Workload generation
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random request generation")
	runCmd.Flags().IntVar(&maxPrompts, "max-prompts", 100, "Number of requests")
	runCmd.Flags().IntVar(&prefixGroups, "prefix-groups", 4, "Distinct shared prefixes across the workload")
	runCmd.Flags().IntVar(&prefixTokens, "prefix-tokens", 64, "Shared prefix token count")
	runCmd.Flags().IntVar(&promptTokensMean, "prompt-tokens", 512, "Average prompt token count")
	runCmd.Flags().IntVar(&promptTokensStdev, "prompt-tokens-stdev", 256, "Stddev prompt token count")
	runCmd.Flags().IntVar(&promptTokensMin, "prompt-tokens-min", 2, "Min prompt token count")
	runCmd.Flags().IntVar(&promptTokensMax, "prompt-tokens-max", 7000, "Max prompt token count")
	runCmd.Flags().IntVar(&outputTokensMean, "output-tokens", 512, "Average output token count")
	runCmd.Flags().IntVar(&outputTokensStdev, "output-tokens-stdev", 256, "Stddev output token count")
	runCmd.Flags().IntVar(&outputTokensMin, "output-tokens-min", 2, "Min output token count")
	runCmd.Flags().IntVar(&outputTokensMax, "output-tokens-max", 7000, "Max output token count")

	// Driver
	runCmd.Flags().IntVar(&concurrency, "concurrency", 8, "Parallel client goroutines")
	runCmd.Flags().Float64Var(&abandonFraction, "abandon-fraction", 0.0, "Fraction of routed requests released instead of completed")

	// Reporting
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint (empty = disabled)")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "File to save the stats snapshot to")

	rootCmd.AddCommand(runCmd)
}
