package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkloadConfig() Config {
	return NewConfig(20, 2, 16,
		64, 32, 2, 200,
		32, 16, 2, 100,
		32000, nil, 42)
}

func TestGenerate_SameSeedSameWorkload(t *testing.T) {
	cfg := testWorkloadConfig()

	first, err := Generate(cfg)
	require.NoError(t, err)
	second, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	a := testWorkloadConfig()
	b := testWorkloadConfig()
	b.Seed = 43

	ra, err := Generate(a)
	require.NoError(t, err)
	rb, err := Generate(b)
	require.NoError(t, err)

	assert.NotEqual(t, ra, rb)
}

func TestGenerate_PrefixGroupsShareTokens(t *testing.T) {
	// GIVEN 2 prefix groups assigned round-robin
	cfg := testWorkloadConfig()
	reqs, err := Generate(cfg)
	require.NoError(t, err)

	// THEN requests two apart share their first PrefixTokens tokens
	for i := 0; i+cfg.PrefixGroups < len(reqs); i++ {
		a := reqs[i].Tokens[:cfg.PrefixTokens]
		b := reqs[i+cfg.PrefixGroups].Tokens[:cfg.PrefixTokens]
		assert.Equal(t, a, b, "requests %d and %d in the same group", i, i+cfg.PrefixGroups)
	}

	// AND adjacent requests belong to different groups
	assert.NotEqual(t,
		reqs[0].Tokens[:cfg.PrefixTokens],
		reqs[1].Tokens[:cfg.PrefixTokens])
}

func TestGenerate_NoPrefixGroups(t *testing.T) {
	cfg := testWorkloadConfig()
	cfg.PrefixGroups = 0

	reqs, err := Generate(cfg)
	require.NoError(t, err)
	assert.Len(t, reqs, cfg.MaxPrompts)
	for _, r := range reqs {
		assert.GreaterOrEqual(t, len(r.Tokens), cfg.PromptTokensMin)
	}
}

func TestGenerate_TokenCountsClamped(t *testing.T) {
	// GIVEN an extreme stddev forcing samples against the clamps
	cfg := testWorkloadConfig()
	cfg.PrefixGroups = 0
	cfg.MaxPrompts = 200
	cfg.PromptTokensStdev = 10000
	cfg.OutputTokensStdev = 10000

	reqs, err := Generate(cfg)
	require.NoError(t, err)

	for _, r := range reqs {
		assert.GreaterOrEqual(t, len(r.Tokens), cfg.PromptTokensMin)
		assert.LessOrEqual(t, len(r.Tokens), cfg.PromptTokensMax)
		assert.GreaterOrEqual(t, r.OutputTokens, cfg.OutputTokensMin)
		assert.LessOrEqual(t, r.OutputTokens, cfg.OutputTokensMax)
	}
}

func TestGenerate_TokensWithinVocab(t *testing.T) {
	cfg := testWorkloadConfig()
	cfg.VocabSize = 100

	reqs, err := Generate(cfg)
	require.NoError(t, err)
	for _, r := range reqs {
		for _, tok := range r.Tokens {
			assert.GreaterOrEqual(t, tok, 0)
			assert.Less(t, tok, 100)
		}
	}
}

func TestGenerate_EndpointsCycle(t *testing.T) {
	cfg := testWorkloadConfig()
	cfg.Endpoints = []string{"/a", "/b"}

	reqs, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/a", reqs[0].Endpoint)
	assert.Equal(t, "/b", reqs[1].Endpoint)
	assert.Equal(t, "/a", reqs[2].Endpoint)
}

func TestGenerate_DefaultEndpoint(t *testing.T) {
	reqs, err := Generate(testWorkloadConfig())
	require.NoError(t, err)
	assert.Equal(t, "/v1/completions", reqs[0].Endpoint)
}

func TestConfigValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero prompts", func(c *Config) { c.MaxPrompts = 0 }},
		{"zero vocab", func(c *Config) { c.VocabSize = 0 }},
		{"inverted prompt bounds", func(c *Config) { c.PromptTokensMin = 10; c.PromptTokensMax = 5 }},
		{"inverted output bounds", func(c *Config) { c.OutputTokensMin = 10; c.OutputTokensMax = 5 }},
		{"negative prefix groups", func(c *Config) { c.PrefixGroups = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testWorkloadConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
