package alloc

import "gonum.org/v1/gonum/floats"

// AssetFairness equalizes each flow's capacity-weighted total usage,
// sum_k(coef[i]*demand[i][k]/capacity[k]), subject to capacity.
type AssetFairness struct{}

// Name returns "asset-fairness".
func (a *AssetFairness) Name() string { return PolicyAssetFairness }

// Allocate computes Asset Fairness coefficients. Flows with an all-zero demand receive 0.
func (a *AssetFairness) Allocate(capacity []float64, demands [][]float64) ([]float64, error) {
	if err := validate(capacity, demands); err != nil {
		return nil, err
	}
	norm := normalize(capacity, demands)
	share := make([]float64, len(norm))
	for i, v := range norm {
		share[i] = floats.Sum(v)
	}
	return fill(norm, share), nil
}
