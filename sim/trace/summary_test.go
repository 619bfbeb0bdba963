package trace

import (
	"math"
	"testing"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalAdmissions != 0 || summary.Allocations != 0 {
		t.Error("expected zero-value summary for nil trace")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalAdmissions != 0 {
		t.Errorf("expected 0 admissions, got %d", summary.TotalAdmissions)
	}
	if summary.AdmittedCount != 0 || summary.RejectedCount != 0 {
		t.Error("expected 0 admitted and rejected")
	}
	if summary.MeanFairness != 0 || summary.MinFairness != 0 {
		t.Error("expected 0 fairness values")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordAdmission(AdmissionRecord{FlowID: 1, Admitted: true})
	st.RecordAdmission(AdmissionRecord{FlowID: 2, Admitted: false, Reason: "invalid demand"})
	st.RecordAdmission(AdmissionRecord{FlowID: 3, Admitted: true})
	st.RecordAllocation(AllocationRecord{FlowIDs: []int64{1}, DominantShares: []float64{0.5}})
	st.RecordAllocation(AllocationRecord{FlowIDs: []int64{1, 3}, DominantShares: []float64{0.5, 0.5}})
	st.RecordCompletion(CompletionRecord{FlowID: 1})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalAdmissions != 3 {
		t.Errorf("expected 3 admissions, got %d", summary.TotalAdmissions)
	}
	if summary.AdmittedCount != 2 || summary.RejectedCount != 1 {
		t.Errorf("expected 2 admitted and 1 rejected, got %d and %d", summary.AdmittedCount, summary.RejectedCount)
	}
	if summary.Allocations != 2 || summary.Completions != 1 {
		t.Errorf("expected 2 allocations and 1 completion, got %d and %d", summary.Allocations, summary.Completions)
	}
	if summary.MaxFlows != 2 {
		t.Errorf("expected max 2 flows, got %d", summary.MaxFlows)
	}
}

func TestSummarize_Fairness_MeanAndMin(t *testing.T) {
	// GIVEN one perfectly fair and one maximally unfair allocation over two flows
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordAllocation(AllocationRecord{FlowIDs: []int64{1, 2}, DominantShares: []float64{0.3, 0.3}})
	st.RecordAllocation(AllocationRecord{FlowIDs: []int64{1, 2}, DominantShares: []float64{0.6, 0}})

	// WHEN summarized
	summary := Summarize(st)

	// THEN min is 1/n = 0.5 and mean is 0.75
	if math.Abs(summary.MinFairness-0.5) > 1e-12 {
		t.Errorf("expected min fairness 0.5, got %v", summary.MinFairness)
	}
	if math.Abs(summary.MeanFairness-0.75) > 1e-12 {
		t.Errorf("expected mean fairness 0.75, got %v", summary.MeanFairness)
	}
}

func TestJainIndex(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0}, 1},
		{"equal", []float64{2, 2, 2}, 1},
		{"one takes all", []float64{1, 0, 0, 0}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JainIndex(tt.xs); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("JainIndex(%v) = %v, want %v", tt.xs, got, tt.want)
			}
		})
	}
}
