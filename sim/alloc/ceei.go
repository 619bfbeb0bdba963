package alloc

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultCEEIMaxIterations = 5000
	defaultCEEITolerance     = 1e-9
)

// CEEI implements Competitive Equilibrium from Equal Incomes.
//
// Every flow holds a budget of 1 and buys as many copies of its demand bundle as it can afford
// at the current resource prices, up to one full bundle. The equilibrium price vector is found
// by minimizing the convex dual of the Eisenberg-Gale program
//
//	max sum_i log(x_i)  s.t.  sum_i x_i*a_ik <= 1,  0 <= x_i <= 1
//
// with accelerated projected gradient descent. a_ik is demand over capacity, so prices are
// per unit of capacity. At the optimum the market clears: a resource with a positive price is
// fully used, and an under-used resource is free.
type CEEI struct {
	MaxIterations int
	Tolerance     float64
}

// NewCEEI creates a CEEI policy. Non-positive arguments select the defaults.
func NewCEEI(maxIterations int, tolerance float64) *CEEI {
	if maxIterations <= 0 {
		maxIterations = defaultCEEIMaxIterations
	}
	if tolerance <= 0 {
		tolerance = defaultCEEITolerance
	}
	return &CEEI{MaxIterations: maxIterations, Tolerance: tolerance}
}

// Name returns "ceei".
func (c *CEEI) Name() string { return PolicyCEEI }

// Allocate computes CEEI coefficients. Flows with an all-zero demand receive 0.
func (c *CEEI) Allocate(capacity []float64, demands [][]float64) ([]float64, error) {
	coef, _, err := c.Equilibrium(capacity, demands)
	return coef, err
}

// Equilibrium returns the coefficients together with the clearing price of each resource,
// normalized to a capacity of 1.
func (c *CEEI) Equilibrium(capacity []float64, demands [][]float64) ([]float64, []float64, error) {
	if err := validate(capacity, demands); err != nil {
		return nil, nil, err
	}
	coef := make([]float64, len(demands))
	prices := make([]float64, len(capacity))

	// Flows with no demand are outside the market.
	var buyers [][]float64
	var index []int
	for i, a := range normalize(capacity, demands) {
		if floats.Sum(a) > 0 {
			buyers = append(buyers, a)
			index = append(index, i)
		}
	}
	if len(buyers) == 0 {
		return coef, prices, nil
	}

	maxIter, tol := c.MaxIterations, c.Tolerance
	if maxIter <= 0 {
		maxIter = defaultCEEIMaxIterations
	}
	if tol <= 0 {
		tol = defaultCEEITolerance
	}

	// The dual gradient is Lipschitz with constant at most sum_i |a_i|^2.
	lipschitz := 0.0
	for _, a := range buyers {
		lipschitz += floats.Dot(a, a)
	}
	step := 1 / lipschitz

	numResources := len(capacity)
	for k := range prices {
		prices[k] = 1
	}
	momentum := floats.ScaleTo(make([]float64, numResources), 1, prices)
	next := make([]float64, numResources)
	x := make([]float64, len(buyers))
	t := 1.0
	converged := false
	for iter := 0; iter < maxIter; iter++ {
		z := excessUsage(buyers, momentum, x)
		for k := range next {
			next[k] = math.Max(0, momentum[k]-step*(1-z[k]))
		}
		tNext := (1 + math.Sqrt(1+4*t*t)) / 2
		for k := range momentum {
			momentum[k] = next[k] + (t-1)/tNext*(next[k]-prices[k])
		}
		copy(prices, next)
		t = tNext

		if clearingResidual(prices, excessUsage(buyers, prices, x)) < tol {
			converged = true
			break
		}
	}
	if !converged {
		logrus.Debugf("ceei: price search stopped after %d iterations without reaching tolerance %g", maxIter, tol)
	}

	z := excessUsage(buyers, prices, x)
	// Recovering the primal from an approximate dual can overshoot capacity by a hair.
	if worst := floats.Max(z); worst > 1 {
		floats.Scale(1/worst, x)
	}
	for j, i := range index {
		coef[i] = math.Min(1, math.Max(0, x[j]))
	}
	return coef, prices, nil
}

// excessUsage fills x with each buyer's demand at prices and returns the resulting usage of
// every resource as a fraction of capacity.
func excessUsage(buyers [][]float64, prices []float64, x []float64) []float64 {
	used := make([]float64, len(prices))
	for j, a := range buyers {
		cost := floats.Dot(prices, a)
		if cost <= 1 {
			x[j] = 1
		} else {
			x[j] = 1 / cost
		}
		floats.AddScaled(used, x[j], a)
	}
	return used
}

// clearingResidual measures how far prices are from a projected-gradient fixed point.
func clearingResidual(prices, used []float64) float64 {
	residual := 0.0
	for k, p := range prices {
		residual = math.Max(residual, math.Abs(p-math.Max(0, p-(1-used[k]))))
	}
	return residual
}
