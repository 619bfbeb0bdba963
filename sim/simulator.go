// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/taegyunkim/denarii/sim/alloc"
	"github.com/taegyunkim/denarii/sim/trace"
)

// Arrival describes a flow entering the system at some tick.
type Arrival struct {
	ID               int64     `yaml:"id" json:"id"`
	RequiredProgress float64   `yaml:"required_progress" json:"required_progress"`
	Demand           []float64 `yaml:"demand,flow" json:"demand"`
}

// ArrivalSource supplies the arrivals of each tick. A tick with no arrivals is valid.
// Implementations must not retain or mutate the returned slice after the call.
type ArrivalSource interface {
	ArrivalsAt(tick int64) []Arrival
}

// SimConfig groups the parameters of a single run.
type SimConfig struct {
	Ticks      int64            // number of ticks to simulate, clock runs 0..Ticks-1
	Capacity   []float64        // per-resource capacity, constant for the run
	TraceLevel trace.TraceLevel // decision tracing verbosity
}

// Simulator owns the active and completed flows and drives them tick by tick.
//
// Each tick runs four phases in a fixed order: admit arrivals, step every active flow,
// evict the flows that completed, and reallocate if the active set changed.
// Reallocated coefficients take effect from the next step onward.
//
// Thread-safety: NOT thread-safe. Use one Simulator per goroutine.
type Simulator struct {
	RunID     xid.ID
	Clock     int64
	Ticks     int64
	Capacity  []float64
	Allocator alloc.Allocator
	Source    ArrivalSource

	// Active holds admitted flows that have not completed, in admission order.
	Active []*Flow
	// Completed holds flows in completion order. A flow never returns to Active.
	Completed []*Flow

	Metrics *Metrics
	// Trace is nil unless decision tracing is enabled.
	Trace *trace.SimulationTrace

	usage []float64 // resources held under the allocation currently in force
}

// NewSimulator creates a simulator for one run.
func NewSimulator(cfg SimConfig, allocator alloc.Allocator, source ArrivalSource) (*Simulator, error) {
	if cfg.Ticks < 0 {
		return nil, fmt.Errorf("ticks must be non-negative, got %d", cfg.Ticks)
	}
	if len(cfg.Capacity) == 0 {
		return nil, fmt.Errorf("capacity must have at least one resource dimension")
	}
	for k, c := range cfg.Capacity {
		if !(c > 0) {
			return nil, fmt.Errorf("capacity[%d] must be positive, got %v", k, c)
		}
	}
	if allocator == nil || source == nil {
		return nil, fmt.Errorf("allocator and arrival source are required")
	}
	if !trace.IsValidTraceLevel(string(cfg.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", cfg.TraceLevel)
	}

	s := &Simulator{
		RunID:     xid.New(),
		Ticks:     cfg.Ticks,
		Capacity:  append([]float64(nil), cfg.Capacity...),
		Allocator: allocator,
		Source:    source,
		usage:     make([]float64, len(cfg.Capacity)),
	}
	s.Metrics = NewMetrics(s.RunID.String(), allocator.Name(), len(cfg.Capacity))
	if cfg.TraceLevel == trace.TraceLevelDecisions {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel})
	}
	return s, nil
}

// NumResources returns the number of resource dimensions.
func (sim *Simulator) NumResources() int {
	return len(sim.Capacity)
}

// Run executes the remaining ticks. Flows still active at the end are left as they are.
// An error aborts the run; the simulator is left at the failing tick.
func (sim *Simulator) Run() error {
	logrus.Infof("[run %s] Starting %s over %d ticks, capacity=%v", sim.RunID, sim.Allocator.Name(), sim.Ticks, sim.Capacity)
	for sim.Clock < sim.Ticks {
		if err := sim.Step(); err != nil {
			return err
		}
	}
	sim.Metrics.ActiveAtEnd = len(sim.Active)
	sim.Metrics.Ticks = sim.Clock
	logrus.Infof("[run %s] Simulation ended at tick %d with %d completed, %d active",
		sim.RunID, sim.Clock, len(sim.Completed), len(sim.Active))
	return nil
}

// Step executes the current tick and advances the clock.
func (sim *Simulator) Step() error {
	t := sim.Clock

	arrived := 0
	for _, a := range sim.Source.ArrivalsAt(t) {
		if sim.admit(a, t) {
			arrived++
		}
	}

	// Step first and collect completions, then evict, so the active slice is never
	// modified while it is iterated.
	var done []int
	for i, f := range sim.Active {
		completed, err := f.Step(t)
		if err != nil {
			return fmt.Errorf("tick %d: %w", t, err)
		}
		if completed {
			done = append(done, i)
		}
	}
	if len(done) > 0 {
		sim.evict(done, t)
	}

	if len(sim.Active) == 0 {
		clear(sim.usage)
	} else if arrived > 0 || len(done) > 0 {
		if err := sim.reallocate(t); err != nil {
			return err
		}
	}

	sim.Metrics.RecordUtilization(sim.usage, sim.Capacity)
	sim.Clock++
	return nil
}

// admit turns an arrival into an unscheduled active flow. A malformed arrival is
// rejected and logged; it does not abort the run.
func (sim *Simulator) admit(a Arrival, t int64) bool {
	f, err := NewFlow(a.ID, t, a.RequiredProgress, a.Demand)
	if err == nil && len(f.Demand) != sim.NumResources() {
		err = fmt.Errorf("flow %d: %w: demand has %d dimensions, capacity has %d",
			a.ID, ErrDimensionMismatch, len(f.Demand), sim.NumResources())
	}
	if err != nil {
		logrus.Warnf("[tick %07d] Rejected arrival: %v", t, err)
		sim.Metrics.RejectedArrivals++
		if sim.Trace != nil {
			sim.Trace.RecordAdmission(trace.AdmissionRecord{FlowID: a.ID, Tick: t, Admitted: false, Reason: err.Error()})
		}
		return false
	}

	logrus.Debugf("[tick %07d] << Arrival: flow %d demand=%v required=%v", t, f.ID, f.Demand, f.RequiredProgress)
	sim.Active = append(sim.Active, f)
	sim.Metrics.AdmittedArrivals++
	if sim.Trace != nil {
		sim.Trace.RecordAdmission(trace.AdmissionRecord{FlowID: a.ID, Tick: t, Admitted: true})
	}
	return true
}

// evict moves the flows at the given ascending indices of Active to Completed.
func (sim *Simulator) evict(done []int, t int64) {
	remaining := sim.Active[:0]
	next := 0
	for i, f := range sim.Active {
		if next < len(done) && done[next] == i {
			next++
			logrus.Debugf("[tick %07d] >> Completed: flow %d latency=%d", t, f.ID, f.Latency())
			sim.Completed = append(sim.Completed, f)
			sim.Metrics.RecordCompletion(f)
			if sim.Trace != nil {
				sim.Trace.RecordCompletion(trace.CompletionRecord{FlowID: f.ID, ArrivalTick: f.ArrivalTick, DepartureTick: t})
			}
			continue
		}
		remaining = append(remaining, f)
	}
	clear(sim.Active[len(remaining):])
	sim.Active = remaining
}

// reallocate asks the allocator for a fresh split of capacity over the active flows
// and stamps every flow with its coefficient-scaled demand.
func (sim *Simulator) reallocate(t int64) error {
	demands := make([][]float64, len(sim.Active))
	for i, f := range sim.Active {
		demands[i] = append([]float64(nil), f.Demand...)
	}

	coefficients, err := sim.Allocator.Allocate(sim.Capacity, demands)
	if err != nil {
		return fmt.Errorf("tick %d: reallocation with %s: %w", t, sim.Allocator.Name(), err)
	}
	if len(coefficients) != len(sim.Active) {
		panic(fmt.Sprintf("allocator %s returned %d coefficients for %d flows",
			sim.Allocator.Name(), len(coefficients), len(sim.Active)))
	}
	sim.Metrics.AllocatorInvocations++

	clear(sim.usage)
	for i, f := range sim.Active {
		granted := make([]float64, len(f.Demand))
		for k, d := range f.Demand {
			granted[k] = coefficients[i] * d
			sim.usage[k] += granted[k]
		}
		if err := f.Allocate(granted); err != nil {
			return fmt.Errorf("tick %d: %w", t, err)
		}
	}
	logrus.Debugf("[tick %07d] Reallocated %d flows: coefficients=%v", t, len(sim.Active), coefficients)

	if sim.Trace != nil {
		ids := make([]int64, len(sim.Active))
		for i, f := range sim.Active {
			ids[i] = f.ID
		}
		sim.Trace.RecordAllocation(trace.AllocationRecord{
			Tick:           t,
			FlowIDs:        ids,
			Coefficients:   coefficients,
			DominantShares: alloc.DominantShares(sim.Capacity, demands, coefficients),
		})
	}
	return nil
}
