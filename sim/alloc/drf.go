package alloc

// DRF implements Dominant Resource Fairness.
//
// A flow's dominant share is the largest fraction of any single resource it holds. DRF raises
// all dominant shares together (progressive filling) and stops a flow when its full demand is
// granted or when a resource it needs runs out. The result is Pareto-efficient and envy-free,
// and a flow that saturates nothing even with its whole demand receives coefficient 1.
type DRF struct{}

// Name returns "drf".
func (d *DRF) Name() string { return PolicyDRF }

// Allocate computes DRF coefficients. Flows with an all-zero demand receive 0.
func (d *DRF) Allocate(capacity []float64, demands [][]float64) ([]float64, error) {
	if err := validate(capacity, demands); err != nil {
		return nil, err
	}
	norm := normalize(capacity, demands)
	share := make([]float64, len(norm))
	for i, a := range norm {
		for _, v := range a {
			if v > share[i] {
				share[i] = v
			}
		}
	}
	return fill(norm, share), nil
}
