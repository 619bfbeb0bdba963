package workload

import (
	"fmt"
	"math"
)

const (
	// MaxRuns is the number of independent traces generated per TraceKey.
	MaxRuns = 4
	// MaxTraceTicks is the length of every generated trace.
	MaxTraceTicks = 10000
)

// Arrival process names.
const (
	DistributionPoisson   = "poisson"
	DistributionBernoulli = "bernoulli"
)

var validDistributions = map[string]bool{
	DistributionPoisson:   true,
	DistributionBernoulli: true,
}

// IsValidDistribution returns true if name is a recognized arrival process.
func IsValidDistribution(name string) bool { return validDistributions[name] }

// ValidDistributionNames returns the recognized arrival process names.
func ValidDistributionNames() []string {
	return []string{DistributionPoisson, DistributionBernoulli}
}

// GenConfig bounds the random attributes of generated arrivals.
// Ranges are half-open: [Min, Max).
type GenConfig struct {
	ServiceTimeMin int `yaml:"service_time_min"`
	ServiceTimeMax int `yaml:"service_time_max"`
	DemandMin      int `yaml:"demand_min"`
	DemandMax      int `yaml:"demand_max"`
}

// DefaultGenConfig returns service times in [10,20) and per-resource demands in [1,11).
func DefaultGenConfig() GenConfig {
	return GenConfig{
		ServiceTimeMin: 10,
		ServiceTimeMax: 20,
		DemandMin:      1,
		DemandMax:      11,
	}
}

// Validate checks that both ranges are non-empty and yield valid flows.
func (c GenConfig) Validate() error {
	if c.ServiceTimeMin < 1 {
		return fmt.Errorf("service_time_min must be >= 1, got %d", c.ServiceTimeMin)
	}
	if c.ServiceTimeMax <= c.ServiceTimeMin {
		return fmt.Errorf("service_time_max (%d) must exceed service_time_min (%d)", c.ServiceTimeMax, c.ServiceTimeMin)
	}
	if c.DemandMin < 0 {
		return fmt.Errorf("demand_min must be >= 0, got %d", c.DemandMin)
	}
	if c.DemandMax <= c.DemandMin {
		return fmt.Errorf("demand_max (%d) must exceed demand_min (%d)", c.DemandMax, c.DemandMin)
	}
	return nil
}

// validateRate checks the arrival parameter of a distribution: a Poisson mean must be
// positive, a Bernoulli probability must lie in [0,1].
func validateRate(distribution string, rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("rate must be a finite number, got %v", rate)
	}
	switch distribution {
	case DistributionPoisson:
		if rate <= 0 {
			return fmt.Errorf("poisson lambda must be positive, got %v", rate)
		}
	case DistributionBernoulli:
		if rate < 0 || rate > 1 {
			return fmt.Errorf("bernoulli p must be in [0,1], got %v", rate)
		}
	default:
		return fmt.Errorf("unknown distribution %q; valid: %v", distribution, ValidDistributionNames())
	}
	return nil
}
