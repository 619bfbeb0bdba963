// Tracks per-run statistics: admissions, completions, latency and capacity utilization.

package sim

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about one simulation run for final reporting.
type Metrics struct {
	RunID        string
	Policy       string
	NumResources int
	Ticks        int64 // ticks simulated

	AdmittedArrivals     int // arrivals that became flows
	RejectedArrivals     int // arrivals refused at admission
	CompletedFlows       int
	ActiveAtEnd          int // flows still active when the run stopped
	AllocatorInvocations int

	Latencies      []int64   // departure - arrival per completed flow, in completion order
	UtilizationSum []float64 // per-resource sum over ticks of used/capacity
	UtilizedTicks  int64     // ticks folded into UtilizationSum
}

// NewMetrics creates an empty Metrics for a run.
func NewMetrics(runID, policy string, numResources int) *Metrics {
	return &Metrics{
		RunID:          runID,
		Policy:         policy,
		NumResources:   numResources,
		UtilizationSum: make([]float64, numResources),
	}
}

// RecordCompletion folds a completed flow into the statistics.
func (m *Metrics) RecordCompletion(f *Flow) {
	m.CompletedFlows++
	m.Latencies = append(m.Latencies, f.Latency())
}

// RecordUtilization folds one tick's resource usage into the statistics.
func (m *Metrics) RecordUtilization(used, capacity []float64) {
	for k := range m.UtilizationSum {
		m.UtilizationSum[k] += used[k] / capacity[k]
	}
	m.UtilizedTicks++
}

// MetricsSummary is the reportable form of Metrics.
type MetricsSummary struct {
	RunID                string    `json:"run_id"`
	Policy               string    `json:"policy"`
	Ticks                int64     `json:"ticks"`
	AdmittedArrivals     int       `json:"admitted_arrivals"`
	RejectedArrivals     int       `json:"rejected_arrivals"`
	CompletedFlows       int       `json:"completed_flows"`
	ActiveAtEnd          int       `json:"active_at_end"`
	AllocatorInvocations int       `json:"allocator_invocations"`
	LatencyMean          float64   `json:"latency_mean_ticks"`
	LatencyP50           float64   `json:"latency_p50_ticks"`
	LatencyP90           float64   `json:"latency_p90_ticks"`
	LatencyP99           float64   `json:"latency_p99_ticks"`
	Throughput           float64   `json:"throughput_flows_per_tick"`
	MeanUtilization      []float64 `json:"mean_utilization"`
}

// Summary computes the reportable statistics. Latency fields are zero when nothing completed.
func (m *Metrics) Summary() MetricsSummary {
	s := MetricsSummary{
		RunID:                m.RunID,
		Policy:               m.Policy,
		Ticks:                m.Ticks,
		AdmittedArrivals:     m.AdmittedArrivals,
		RejectedArrivals:     m.RejectedArrivals,
		CompletedFlows:       m.CompletedFlows,
		ActiveAtEnd:          m.ActiveAtEnd,
		AllocatorInvocations: m.AllocatorInvocations,
		MeanUtilization:      make([]float64, len(m.UtilizationSum)),
	}
	if len(m.Latencies) > 0 {
		sorted := make([]float64, len(m.Latencies))
		for i, l := range m.Latencies {
			sorted[i] = float64(l)
		}
		sort.Float64s(sorted)
		s.LatencyMean = stat.Mean(sorted, nil)
		s.LatencyP50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
		s.LatencyP90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
		s.LatencyP99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	}
	if m.Ticks > 0 {
		s.Throughput = float64(m.CompletedFlows) / float64(m.Ticks)
	}
	if m.UtilizedTicks > 0 {
		for k, u := range m.UtilizationSum {
			s.MeanUtilization[k] = u / float64(m.UtilizedTicks)
		}
	}
	return s
}

// Print displays the run's statistics on stdout.
func (m *Metrics) Print() {
	data, err := json.MarshalIndent(m.Summary(), "", "  ")
	if err != nil {
		// MetricsSummary holds only plain numbers and strings.
		panic(err)
	}
	fmt.Println("=== Simulation Metrics ===")
	fmt.Println(string(data))
}
