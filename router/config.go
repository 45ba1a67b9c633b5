package router

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for Config fields. Kept as named constants so the CLI help text
// and the zero-config path agree on a single source of truth.
const (
	DefaultKVOverlapWeight   = 1.0
	DefaultLoadBalanceWeight = 0.5
	DefaultBlockSize         = 16
	DefaultNumWorkers        = 4
	DefaultVocabSize         = 32000
)

// Config groups the router construction parameters. Immutable after
// NewSmartRouter; the router keeps its own copy.
type Config struct {
	KVOverlapWeight   float64       // weight on prefill (uncached) blocks in the cost function
	LoadBalanceWeight float64       // weight on a worker's in-flight request count
	BlockSize         int           // tokens per cache block
	NumWorkers        int           // fixed worker count, created at construction
	VocabSize         int           // tokenizer vocabulary bound
	NodeTTL           time.Duration // radix tree idle-node TTL; 0 = never evict (default)
}

// NewConfig creates a Config with all fields explicitly set.
// Parameter order matches struct field order.
func NewConfig(kvOverlapWeight, loadBalanceWeight float64,
	blockSize, numWorkers, vocabSize int, nodeTTL time.Duration) Config {
	return Config{
		KVOverlapWeight:   kvOverlapWeight,
		LoadBalanceWeight: loadBalanceWeight,
		BlockSize:         blockSize,
		NumWorkers:        numWorkers,
		VocabSize:         vocabSize,
		NodeTTL:           nodeTTL,
	}
}

// DefaultConfig returns the default configuration: 4 workers, 16-token
// blocks, overlap weighted 1.0 against a 0.5 load-balance term, no eviction.
func DefaultConfig() Config {
	return NewConfig(DefaultKVOverlapWeight, DefaultLoadBalanceWeight,
		DefaultBlockSize, DefaultNumWorkers, DefaultVocabSize, 0)
}

// Validate rejects configurations the router cannot run with.
// A zero worker count is a fatal configuration error (ErrNoWorkersAvailable):
// it is caught here rather than surfacing on the routing path.
func (c Config) Validate() error {
	if c.NumWorkers <= 0 {
		return fmt.Errorf("num_workers must be > 0, got %d: %w", c.NumWorkers, ErrNoWorkersAvailable)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be > 0, got %d", c.BlockSize)
	}
	if c.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be > 0, got %d", c.VocabSize)
	}
	if c.KVOverlapWeight < 0 {
		return fmt.Errorf("kv_overlap_weight must be >= 0, got %f", c.KVOverlapWeight)
	}
	if c.LoadBalanceWeight < 0 {
		return fmt.Errorf("load_balance_weight must be >= 0, got %f", c.LoadBalanceWeight)
	}
	if c.NodeTTL < 0 {
		return fmt.Errorf("node_ttl must be >= 0, got %s", c.NodeTTL)
	}
	return nil
}

// ConfigFile is the YAML representation of Config. Fields are pointers so an
// absent key is distinguishable from an explicit zero, letting CLI flags
// override only the values the file does not set.
type ConfigFile struct {
	KVOverlapWeight   *float64 `yaml:"kv_overlap_weight"`
	LoadBalanceWeight *float64 `yaml:"load_balance_weight"`
	BlockSize         *int     `yaml:"block_size"`
	NumWorkers        *int     `yaml:"num_workers"`
	VocabSize         *int     `yaml:"vocab_size"`
	NodeTTL           *string  `yaml:"node_ttl"`
}

// LoadConfigFile parses a YAML router configuration from path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cf ConfigFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cf, nil
}

// Apply overlays the file's set fields onto cfg and returns the result.
// Unset fields keep cfg's values.
func (cf *ConfigFile) Apply(cfg Config) (Config, error) {
	if cf.KVOverlapWeight != nil {
		cfg.KVOverlapWeight = *cf.KVOverlapWeight
	}
	if cf.LoadBalanceWeight != nil {
		cfg.LoadBalanceWeight = *cf.LoadBalanceWeight
	}
	if cf.BlockSize != nil {
		cfg.BlockSize = *cf.BlockSize
	}
	if cf.NumWorkers != nil {
		cfg.NumWorkers = *cf.NumWorkers
	}
	if cf.VocabSize != nil {
		cfg.VocabSize = *cf.VocabSize
	}
	if cf.NodeTTL != nil {
		ttl, err := time.ParseDuration(*cf.NodeTTL)
		if err != nil {
			return cfg, fmt.Errorf("parse node_ttl %q: %w", *cf.NodeTTL, err)
		}
		cfg.NodeTTL = ttl
	}
	return cfg, nil
}
