// Package trace provides decision-trace recording for allocation policy analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AdmissionRecord captures whether an arrival became a flow.
type AdmissionRecord struct {
	FlowID   int64
	Tick     int64
	Admitted bool
	Reason   string // rejection cause; empty when admitted
}

// AllocationRecord captures one allocator invocation. Slices are index-aligned.
type AllocationRecord struct {
	Tick           int64
	FlowIDs        []int64
	Coefficients   []float64
	DominantShares []float64
}

// CompletionRecord captures a flow leaving the active set.
type CompletionRecord struct {
	FlowID        int64
	ArrivalTick   int64
	DepartureTick int64
}
