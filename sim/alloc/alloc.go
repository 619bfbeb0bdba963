// Package alloc provides the multi-resource allocation policies evaluated by the simulator.
//
// Every policy maps a capacity vector and a set of demand vectors to one coefficient per
// demand. A coefficient is the fraction of that demand actually granted, so flow i receives
// coefficient[i] * demand[i][k] of resource k. Policies are pure: they keep no state between
// calls and identical inputs produce bit-identical outputs.
package alloc

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Epsilon is the numerical tolerance used for saturation and feasibility checks,
// expressed as a fraction of a resource's capacity.
const Epsilon = 1e-9

// ErrInfeasibleInput is returned when the capacity vector or a demand vector is malformed.
var ErrInfeasibleInput = errors.New("infeasible allocation input")

// Allocator splits a fixed capacity among competing demands.
// The set of implementations is closed: DRF, CEEI and AssetFairness.
type Allocator interface {
	// Name returns the policy name accepted by NewAllocator.
	Name() string
	// Allocate returns len(demands) coefficients in [0, 1] such that
	// sum_i(coef[i]*demands[i][k]) <= capacity[k] for every k.
	Allocate(capacity []float64, demands [][]float64) ([]float64, error)
}

// Policy names accepted by NewAllocator.
const (
	PolicyDRF           = "drf"
	PolicyCEEI          = "ceei"
	PolicyAssetFairness = "asset-fairness"
)

// ValidAllocators is the set of recognized allocation policy names.
// An empty name selects DRF.
var ValidAllocators = map[string]bool{"": true, PolicyDRF: true, PolicyCEEI: true, PolicyAssetFairness: true}

// IsValidAllocator returns true if name is a recognized allocation policy.
func IsValidAllocator(name string) bool {
	return ValidAllocators[name]
}

// ValidAllocatorNames returns the policy names in a fixed order.
func ValidAllocatorNames() []string {
	return []string{PolicyDRF, PolicyCEEI, PolicyAssetFairness}
}

// Config carries the tunables of the iterative policies. Zero values select defaults.
type Config struct {
	CEEIMaxIterations int     `yaml:"ceei_max_iterations"`
	CEEITolerance     float64 `yaml:"ceei_tolerance"`
}

// NewAllocator creates an allocation policy by name.
// Panics on unrecognized names; callers validate with IsValidAllocator first.
func NewAllocator(name string, cfg Config) Allocator {
	if !IsValidAllocator(name) {
		panic(fmt.Sprintf("unknown allocation policy %q", name))
	}
	switch name {
	case "", PolicyDRF:
		return &DRF{}
	case PolicyCEEI:
		return NewCEEI(cfg.CEEIMaxIterations, cfg.CEEITolerance)
	case PolicyAssetFairness:
		return &AssetFairness{}
	default:
		panic(fmt.Sprintf("unhandled allocation policy %q", name))
	}
}

// validate checks the preconditions shared by every policy.
func validate(capacity []float64, demands [][]float64) error {
	if len(capacity) == 0 {
		return fmt.Errorf("%w: no resource dimensions", ErrInfeasibleInput)
	}
	for k, c := range capacity {
		if !(c > 0) || math.IsInf(c, 1) {
			return fmt.Errorf("%w: capacity[%d] = %v", ErrInfeasibleInput, k, c)
		}
	}
	for i, d := range demands {
		if len(d) != len(capacity) {
			return fmt.Errorf("%w: demand %d has %d dimensions, capacity has %d",
				ErrInfeasibleInput, i, len(d), len(capacity))
		}
		for k, v := range d {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: demand[%d][%d] = %v", ErrInfeasibleInput, i, k, v)
			}
		}
	}
	return nil
}

// normalize expresses every demand as fractions of capacity, so each resource has capacity 1.
func normalize(capacity []float64, demands [][]float64) [][]float64 {
	norm := make([][]float64, len(demands))
	for i, d := range demands {
		norm[i] = floats.DivTo(make([]float64, len(d)), d, capacity)
	}
	return norm
}

// DominantShares returns max_k(coef[i]*demands[i][k]/capacity[k]) for every flow.
func DominantShares(capacity []float64, demands [][]float64, coefficients []float64) []float64 {
	shares := make([]float64, len(demands))
	for i, d := range demands {
		for k, v := range d {
			shares[i] = math.Max(shares[i], coefficients[i]*v/capacity[k])
		}
	}
	return shares
}

// Usage returns sum_i(coef[i]*demands[i][k]) for every resource k.
func Usage(numResources int, demands [][]float64, coefficients []float64) []float64 {
	used := make([]float64, numResources)
	for i, d := range demands {
		floats.AddScaled(used, coefficients[i], d)
	}
	return used
}

// fill raises a common level s across all flows with positive share, granting flow i the
// coefficient min(1, s/share[i]). A flow stops growing once its coefficient reaches 1 or once
// a resource it uses saturates; the others keep rising. norm is capacity-normalized.
func fill(norm [][]float64, share []float64) []float64 {
	coef := make([]float64, len(norm))
	if len(norm) == 0 {
		return coef
	}
	numResources := len(norm[0])

	active := make([]bool, len(norm))
	remaining := 0
	for i := range norm {
		if share[i] > 0 {
			active[i] = true
			remaining++
		}
	}

	used := make([]float64, numResources) // held by flows that stopped growing
	rate := make([]float64, numResources)
	saturated := make([]bool, numResources)
	for remaining > 0 {
		for k := range rate {
			rate[k] = 0
		}
		level := math.Inf(1)
		for i := range norm {
			if !active[i] {
				continue
			}
			level = math.Min(level, share[i])
			floats.AddScaled(rate, 1/share[i], norm[i])
		}
		for k := range rate {
			if rate[k] > 0 {
				level = math.Min(level, math.Max(0, 1-used[k])/rate[k])
			}
		}
		for k := range rate {
			saturated[k] = rate[k] > 0 && used[k]+rate[k]*level >= 1-Epsilon
		}

		stopped := 0
		for i := range norm {
			if !active[i] {
				continue
			}
			coef[i] = math.Min(1, level/share[i])
			done := share[i] <= level
			for k, a := range norm[i] {
				if a > 0 && saturated[k] {
					done = true
					break
				}
			}
			if done {
				active[i] = false
				remaining--
				stopped++
				floats.AddScaled(used, coef[i], norm[i])
			}
		}
		if stopped == 0 {
			// Rounding left no flow exactly at a bound; the current level is already feasible.
			break
		}
	}
	return coef
}
