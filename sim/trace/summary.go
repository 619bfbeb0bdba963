package trace

import "math"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAdmissions int
	AdmittedCount   int
	RejectedCount   int
	Allocations     int
	Completions     int
	MeanFairness    float64 // mean Jain's index of dominant shares over allocations
	MinFairness     float64 // worst Jain's index over allocations
	MaxFlows        int     // largest active set passed to the allocator
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil {
		return summary
	}

	summary.TotalAdmissions = len(st.Admissions)
	for _, a := range st.Admissions {
		if a.Admitted {
			summary.AdmittedCount++
		} else {
			summary.RejectedCount++
		}
	}

	summary.Allocations = len(st.Allocations)
	summary.Completions = len(st.Completions)
	if len(st.Allocations) > 0 {
		total := 0.0
		summary.MinFairness = math.Inf(1)
		for _, r := range st.Allocations {
			j := JainIndex(r.DominantShares)
			total += j
			summary.MinFairness = math.Min(summary.MinFairness, j)
			summary.MaxFlows = max(summary.MaxFlows, len(r.FlowIDs))
		}
		summary.MeanFairness = total / float64(len(st.Allocations))
	}
	return summary
}

// JainIndex returns Jain's fairness index (sum x)^2 / (n * sum x^2), which is 1 when all
// values are equal and 1/n when one value takes everything. Returns 0 for no values and
// 1 when every value is zero.
func JainIndex(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, x := range xs {
		sum += x
		sum2 += x * x
	}
	if sum2 == 0 {
		return 1
	}
	return (sum * sum) / (float64(len(xs)) * sum2)
}
