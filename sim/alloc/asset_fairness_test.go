package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightedUsage(capacity []float64, demand []float64, coef float64) float64 {
	total := 0.0
	for k, d := range demand {
		total += coef * d / capacity[k]
	}
	return total
}

func TestAssetFairness_EqualizesWeightedUsage(t *testing.T) {
	// GIVEN two flows whose weighted totals differ per unit
	capacity := []float64{10, 20}
	demands := [][]float64{{10, 0}, {5, 20}}

	// WHEN allocating
	coef, err := (&AssetFairness{}).Allocate(capacity, demands)
	require.NoError(t, err)

	// THEN weighted usage is equal and resource 0 is the binding constraint:
	// flow 0 weight 1.0, flow 1 weight 1.5, so 10*s/1 + 5*s/1.5 = 10 gives s = 0.75.
	assert.InDelta(t, weightedUsage(capacity, demands[0], coef[0]),
		weightedUsage(capacity, demands[1], coef[1]), 1e-12)
	assert.InDelta(t, 0.75, coef[0], 1e-12)
	assert.InDelta(t, 0.5, coef[1], 1e-12)
}

func TestAssetFairness_DiffersFromDRF(t *testing.T) {
	capacity := []float64{10, 20}
	demands := [][]float64{{10, 0}, {5, 20}}

	af, err := (&AssetFairness{}).Allocate(capacity, demands)
	require.NoError(t, err)
	drf, err := (&DRF{}).Allocate(capacity, demands)
	require.NoError(t, err)

	// DRF equalizes dominant shares instead, which here are both resource-0 bound at 2/3.
	assert.InDelta(t, 2.0/3.0, drf[0], 1e-12)
	assert.InDelta(t, 2.0/3.0, drf[1], 1e-12)
	assert.NotEqual(t, af, drf)
}
