// Package workload generates synthetic routed requests for exercising the
// smart router, and drives them through it concurrently. Token counts follow
// clamped normal distributions; shared-prefix groups produce the
// block-aligned prefix reuse the cache-aware cost model exists for.
package workload

import (
	"fmt"
	"math/rand"
)

// Request is one synthetic inference request ready to be routed.
type Request struct {
	ID                    string
	Tokens                []int
	EstimatedOutputTokens int
	OutputTokens          int    // actual output length reported at completion
	Endpoint              string // opaque label for the per-endpoint breakdown
}

// Config groups the generation parameters. All distributions are sampled
// from a single seeded source, so the same Config always produces the same
// request set.
type Config struct {
	MaxPrompts        int      // number of requests to generate
	PrefixGroups      int      // distinct shared prefixes (0 = no sharing)
	PrefixTokens      int      // tokens per shared prefix
	PromptTokensMean  int      // mean prompt length (excluding shared prefix)
	PromptTokensStdev int      // stddev of prompt length
	PromptTokensMin   int      // lower clamp on prompt length
	PromptTokensMax   int      // upper clamp on prompt length
	OutputTokensMean  int      // mean output length
	OutputTokensStdev int      // stddev of output length
	OutputTokensMin   int      // lower clamp on output length
	OutputTokensMax   int      // upper clamp on output length
	VocabSize         int      // token ID bound
	Endpoints         []string // labels cycled across requests
	Seed              int64    // RNG seed
}

// NewConfig creates a Config with all fields explicitly set.
// Parameter order matches struct field order.
func NewConfig(maxPrompts, prefixGroups, prefixTokens,
	promptTokensMean, promptTokensStdev, promptTokensMin, promptTokensMax,
	outputTokensMean, outputTokensStdev, outputTokensMin, outputTokensMax,
	vocabSize int, endpoints []string, seed int64) Config {
	return Config{
		MaxPrompts:        maxPrompts,
		PrefixGroups:      prefixGroups,
		PrefixTokens:      prefixTokens,
		PromptTokensMean:  promptTokensMean,
		PromptTokensStdev: promptTokensStdev,
		PromptTokensMin:   promptTokensMin,
		PromptTokensMax:   promptTokensMax,
		OutputTokensMean:  outputTokensMean,
		OutputTokensStdev: outputTokensStdev,
		OutputTokensMin:   outputTokensMin,
		OutputTokensMax:   outputTokensMax,
		VocabSize:         vocabSize,
		Endpoints:         endpoints,
		Seed:              seed,
	}
}

// Validate rejects configurations that cannot generate a workload.
func (c Config) Validate() error {
	if c.MaxPrompts <= 0 {
		return fmt.Errorf("max_prompts must be > 0, got %d", c.MaxPrompts)
	}
	if c.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be > 0, got %d", c.VocabSize)
	}
	if c.PromptTokensMin < 0 || c.PromptTokensMax < c.PromptTokensMin {
		return fmt.Errorf("prompt token bounds invalid: [%d, %d]", c.PromptTokensMin, c.PromptTokensMax)
	}
	if c.OutputTokensMin < 0 || c.OutputTokensMax < c.OutputTokensMin {
		return fmt.Errorf("output token bounds invalid: [%d, %d]", c.OutputTokensMin, c.OutputTokensMax)
	}
	if c.PrefixGroups < 0 || c.PrefixTokens < 0 {
		return fmt.Errorf("prefix config invalid: groups=%d tokens=%d", c.PrefixGroups, c.PrefixTokens)
	}
	return nil
}

// Generate produces the full request set. Requests are assigned to prefix
// groups round-robin; every request in a group starts with the group's
// token prefix, so routing them builds up cache overlap the router can
// exploit. Endpoints cycle the same way.
func Generate(cfg Config) ([]Request, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload config: %w", err)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	prefixes := make([][]int, cfg.PrefixGroups)
	for g := range prefixes {
		prefixes[g] = randomTokens(rng, cfg.PrefixTokens, cfg.VocabSize)
	}

	endpoints := cfg.Endpoints
	if len(endpoints) == 0 {
		endpoints = []string{"/v1/completions"}
	}

	reqs := make([]Request, cfg.MaxPrompts)
	for i := range reqs {
		promptLen := sampleClamped(rng, cfg.PromptTokensMean, cfg.PromptTokensStdev,
			cfg.PromptTokensMin, cfg.PromptTokensMax)
		outputLen := sampleClamped(rng, cfg.OutputTokensMean, cfg.OutputTokensStdev,
			cfg.OutputTokensMin, cfg.OutputTokensMax)

		var tokens []int
		if cfg.PrefixGroups > 0 {
			prefix := prefixes[i%cfg.PrefixGroups]
			tokens = make([]int, 0, len(prefix)+promptLen)
			tokens = append(tokens, prefix...)
			tokens = append(tokens, randomTokens(rng, promptLen, cfg.VocabSize)...)
		} else {
			tokens = randomTokens(rng, promptLen, cfg.VocabSize)
		}

		reqs[i] = Request{
			ID:                    fmt.Sprintf("req-%d", i),
			Tokens:                tokens,
			EstimatedOutputTokens: cfg.OutputTokensMean,
			OutputTokens:          outputLen,
			Endpoint:              endpoints[i%len(endpoints)],
		}
	}
	return reqs, nil
}

// sampleClamped draws from N(mean, stdev) and clamps into [min, max].
func sampleClamped(rng *rand.Rand, mean, stdev, min, max int) int {
	v := int(rng.NormFloat64()*float64(stdev) + float64(mean))
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func randomTokens(rng *rand.Rand, n, vocabSize int) []int {
	tokens := make([]int, n)
	for i := range tokens {
		tokens[i] = rng.Intn(vocabSize)
	}
	return tokens
}
