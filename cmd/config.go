package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taegyunkim/denarii/sim/alloc"
	"github.com/taegyunkim/denarii/sim/trace"
	"github.com/taegyunkim/denarii/sim/workload"
)

// RunConfig holds every parameter of a simulation invocation. It can be loaded from a
// YAML file; flags that are explicitly set override file values.
type RunConfig struct {
	NumResources   int                `yaml:"num_resources"`
	Ticks          int                `yaml:"ticks"`
	Seed           int64              `yaml:"seed"`
	Runs           int                `yaml:"runs"`
	Distribution   string             `yaml:"distribution"`
	Rate           float64            `yaml:"rate"` // Poisson lambda or Bernoulli p
	Algorithm      string             `yaml:"algorithm"`
	Capacity       []float64          `yaml:"capacity,flow"` // empty means (k+1)*10 per resource k
	TraceLevel     string             `yaml:"trace_level"`
	TraceCache     string             `yaml:"trace_cache"`
	TraceCachePath string             `yaml:"trace_cache_path"`
	Workload       workload.GenConfig `yaml:"workload"`
	Allocator      alloc.Config       `yaml:"allocator"`
}

// DefaultRunConfig returns the configuration used when neither a file nor flags say otherwise.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		NumResources: 2,
		Ticks:        100,
		Seed:         1,
		Runs:         1,
		Distribution: workload.DistributionPoisson,
		Rate:         2.0,
		Algorithm:    alloc.PolicyDRF,
		TraceLevel:   string(trace.TraceLevelNone),
		TraceCache:   workload.CacheNone,
		Workload:     workload.DefaultGenConfig(),
	}
}

// LoadRunConfig reads a YAML run config on top of DefaultRunConfig, so omitted keys keep
// their defaults. Unknown keys are rejected.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading run config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing run config: %w", err)
	}
	return cfg, nil
}

// Validate checks limits and names before any trace is generated.
func (c RunConfig) Validate() error {
	if c.NumResources < 1 {
		return fmt.Errorf("num-resources must be >= 1, got %d", c.NumResources)
	}
	if c.Runs < 1 || c.Runs > workload.MaxRuns {
		return fmt.Errorf("runs has to be in [1, %d], got %d", workload.MaxRuns, c.Runs)
	}
	if c.Ticks < 0 || c.Ticks > workload.MaxTraceTicks {
		return fmt.Errorf("ticks has to be in [0, %d], got %d", workload.MaxTraceTicks, c.Ticks)
	}
	if !alloc.IsValidAllocator(c.Algorithm) {
		return fmt.Errorf("unknown algorithm %q; valid: %v", c.Algorithm, alloc.ValidAllocatorNames())
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, decisions", c.TraceLevel)
	}
	if !workload.IsValidCache(c.TraceCache) {
		return fmt.Errorf("unknown trace cache %q; valid: none, memory, file, sqlite", c.TraceCache)
	}
	if len(c.Capacity) > 0 {
		if len(c.Capacity) != c.NumResources {
			return fmt.Errorf("capacity has %d entries, num-resources is %d", len(c.Capacity), c.NumResources)
		}
		for k, v := range c.Capacity {
			if !(v > 0) {
				return fmt.Errorf("capacity[%d] must be positive, got %v", k, v)
			}
		}
	}
	if c.Allocator.CEEIMaxIterations < 0 {
		return fmt.Errorf("ceei_max_iterations must be non-negative, got %d", c.Allocator.CEEIMaxIterations)
	}
	if c.Allocator.CEEITolerance < 0 {
		return fmt.Errorf("ceei_tolerance must be non-negative, got %v", c.Allocator.CEEITolerance)
	}
	if err := c.TraceKey().Validate(); err != nil {
		return err
	}
	return c.Workload.Validate()
}

// Capacities returns the configured capacity vector, or (k+1)*10 for resource k when unset.
func (c RunConfig) Capacities() []float64 {
	if len(c.Capacity) > 0 {
		return append([]float64(nil), c.Capacity...)
	}
	capacity := make([]float64, c.NumResources)
	for k := range capacity {
		capacity[k] = float64(k+1) * 10
	}
	return capacity
}

// TraceKey identifies the workload traces this config replays.
func (c RunConfig) TraceKey() workload.TraceKey {
	return workload.TraceKey{
		Distribution: c.Distribution,
		NumResources: c.NumResources,
		Seed:         c.Seed,
		Rate:         c.Rate,
	}
}

// resolveConfig builds the effective config for a command: the --config file (or the
// defaults) with every explicitly set flag applied on top.
func resolveConfig(cmd *cobra.Command) (RunConfig, error) {
	cfg := DefaultRunConfig()
	if configPath != "" {
		var err error
		if cfg, err = LoadRunConfig(configPath); err != nil {
			return cfg, err
		}
	}
	applyFlagOverrides(cmd, &cfg)
	return cfg, nil
}

// applyFlagOverrides copies flag values into cfg, but only for flags the user set.
func applyFlagOverrides(cmd *cobra.Command, cfg *RunConfig) {
	flags := cmd.Flags()
	if flags.Changed("num-resources") {
		cfg.NumResources = numResources
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("runs") {
		cfg.Runs = runs
	}
	if flags.Changed("distribution") {
		cfg.Distribution = distribution
	}
	if flags.Changed("lambda") {
		cfg.Rate = rate
	}
	if flags.Changed("algorithm") {
		cfg.Algorithm = algorithm
	}
	if flags.Changed("capacity") {
		cfg.Capacity = append([]float64(nil), capacity...)
	}
	if flags.Changed("trace-level") {
		cfg.TraceLevel = traceLevel
	}
	if flags.Changed("trace-cache") {
		cfg.TraceCache = traceCache
	}
	if flags.Changed("trace-cache-path") {
		cfg.TraceCachePath = traceCachePath
	}
}
