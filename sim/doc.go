// Package sim provides the core discrete-time simulation engine for denarii.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - flow.go: Flow lifecycle (unscheduled → scheduled → completed) and progress accounting
//   - simulator.go: The tick loop: admit arrivals, step flows, evict completions, reallocate
//   - metrics.go: Per-run statistics and their summary
//
// # Architecture
//
// The sim package defines the flow model and the loop; everything pluggable lives in
// sub-packages:
//   - sim/alloc/: Allocation policies (DRF, CEEI, Asset Fairness) behind the Allocator interface
//   - sim/workload/: Arrival trace generation, caching (memory, YAML files, SQLite) and replay
//   - sim/trace/: Decision trace recording and fairness summaries
//
// # Key Interfaces
//
//   - alloc.Allocator: maps capacity and the active flows' demands to one coefficient per flow
//   - ArrivalSource: supplies the arrivals of each tick (workload.Trace implements it)
//
// # Determinism
//
// A run is fully determined by its arrival trace and allocation policy. Traces are
// generated from a PartitionedRNG, so the same seed always replays the same arrivals.
package sim
