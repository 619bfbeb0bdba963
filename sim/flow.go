// Defines the Flow struct that models one unit of competing multi-resource demand.
// Tracks arrival and departure ticks, the granted allocation and completion progress.

package sim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidDemand rejects a flow whose demand or required progress is unusable.
	ErrInvalidDemand = errors.New("invalid demand")
	// ErrDimensionMismatch rejects a vector whose length differs from the flow's demand.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDivisionByZero is returned when progress would be measured against a zero demand.
	ErrDivisionByZero = errors.New("division by zero on progress dimension")
	// ErrFlowCompleted is returned when a completed flow is allocated or stepped again.
	ErrFlowCompleted = errors.New("flow already completed")
)

// FlowState represents the lifecycle state of a flow.
type FlowState string

const (
	StateUnscheduled FlowState = "unscheduled"
	StateScheduled   FlowState = "scheduled"
	StateCompleted   FlowState = "completed"
)

// ProgressDimension is the resource whose granted fraction drives a flow's progress rate,
// whichever resource is actually its bottleneck.
const ProgressDimension = 0

// Flow models a single flow's lifecycle in the simulation:
// unscheduled (no allocation yet) -> scheduled (allocation assigned, possibly all zeros)
// -> completed (progress reached RequiredProgress).
//
// ID, ArrivalTick, Demand and RequiredProgress are fixed at creation and must not be modified.
type Flow struct {
	ID               int64     // Unique identifier; identity only, never used for ordering
	ArrivalTick      int64     // Tick at which the flow entered the active set
	Demand           []float64 // Requested quantity per resource dimension
	RequiredProgress float64   // Progress needed to complete

	allocation    []float64 // Granted quantity per resource; empty until first allocated
	progress      float64   // Accumulated progress, monotonically non-decreasing
	departureTick int64     // Set once, on completion
	completed     bool
}

// NewFlow creates an unscheduled flow. The demand is copied.
// Fails with ErrInvalidDemand on an empty demand, a negative or non-finite entry,
// or a non-positive required progress.
func NewFlow(id, arrivalTick int64, requiredProgress float64, demand []float64) (*Flow, error) {
	if len(demand) == 0 {
		return nil, fmt.Errorf("flow %d: %w: no resource dimensions", id, ErrInvalidDemand)
	}
	for k, d := range demand {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("flow %d: %w: demand[%d] = %v", id, ErrInvalidDemand, k, d)
		}
	}
	if !(requiredProgress > 0) || math.IsInf(requiredProgress, 1) {
		return nil, fmt.Errorf("flow %d: %w: required progress %v", id, ErrInvalidDemand, requiredProgress)
	}
	return &Flow{
		ID:               id,
		ArrivalTick:      arrivalTick,
		Demand:           append([]float64(nil), demand...),
		RequiredProgress: requiredProgress,
	}, nil
}

// Allocate replaces the flow's allocation. The vector is copied.
func (f *Flow) Allocate(vector []float64) error {
	if f.completed {
		return fmt.Errorf("flow %d: %w", f.ID, ErrFlowCompleted)
	}
	if len(vector) != len(f.Demand) {
		return fmt.Errorf("flow %d: %w: allocation has %d dimensions, demand has %d",
			f.ID, ErrDimensionMismatch, len(vector), len(f.Demand))
	}
	f.allocation = append(f.allocation[:0], vector...)
	return nil
}

// Step advances the flow by one tick and reports whether it completed at currentTick.
//
// An unscheduled flow does not progress. A scheduled flow gains
// allocation[0]/demand[0] progress. A flow with zero demand on the progress
// dimension cannot be throttled there and completes on its first scheduled step,
// unless it was granted a non-zero amount of that dimension, which is an error.
func (f *Flow) Step(currentTick int64) (bool, error) {
	if f.completed {
		return false, fmt.Errorf("flow %d: %w", f.ID, ErrFlowCompleted)
	}
	if len(f.allocation) == 0 {
		return false, nil
	}

	demand, granted := f.Demand[ProgressDimension], f.allocation[ProgressDimension]
	if demand == 0 {
		if granted != 0 {
			return false, fmt.Errorf("flow %d: %w: granted %v of a zero demand", f.ID, ErrDivisionByZero, granted)
		}
		f.progress = math.Max(f.progress, f.RequiredProgress)
	} else if rate := granted / demand; rate > 0 {
		f.progress += rate
	}

	if f.progress >= f.RequiredProgress {
		f.completed = true
		f.departureTick = currentTick
		return true, nil
	}
	return false, nil
}

// State returns the flow's lifecycle state.
func (f *Flow) State() FlowState {
	switch {
	case f.completed:
		return StateCompleted
	case len(f.allocation) > 0:
		return StateScheduled
	default:
		return StateUnscheduled
	}
}

// IsCompleted reports whether the flow reached its required progress.
func (f *Flow) IsCompleted() bool { return f.completed }

// IsScheduled reports whether the flow has ever been allocated.
func (f *Flow) IsScheduled() bool { return len(f.allocation) > 0 }

// Allocation returns a copy of the current allocation, nil if never allocated.
func (f *Flow) Allocation() []float64 {
	if len(f.allocation) == 0 {
		return nil
	}
	return append([]float64(nil), f.allocation...)
}

// Progress returns the accumulated progress.
func (f *Flow) Progress() float64 { return f.progress }

// DepartureTick returns the completion tick and false if the flow has not completed.
func (f *Flow) DepartureTick() (int64, bool) { return f.departureTick, f.completed }

// Latency returns the number of ticks between arrival and departure, or -1 while active.
func (f *Flow) Latency() int64 {
	if !f.completed {
		return -1
	}
	return f.departureTick - f.ArrivalTick
}

// This method returns a human-readable string representation of a Flow.
func (f *Flow) String() string {
	return fmt.Sprintf("Flow: (ID: %d, State: %s, Progress: %.3f/%.3f, ArrivalTick: %d, Demand: %v)",
		f.ID, f.State(), f.progress, f.RequiredProgress, f.ArrivalTick, f.Demand)
}
