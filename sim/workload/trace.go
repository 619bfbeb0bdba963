// Package workload generates, caches and replays the per-tick arrival traces that
// drive a simulation.
package workload

import (
	"fmt"
	"strconv"

	"github.com/taegyunkim/denarii/sim"
)

// Trace is a sequence of per-tick arrival groups; index t holds the arrivals of tick t.
// An empty group means nothing arrived.
type Trace [][]sim.Arrival

// ArrivalsAt returns the arrivals of the given tick. Ticks outside the trace have none.
func (tr Trace) ArrivalsAt(tick int64) []sim.Arrival {
	if tick < 0 || tick >= int64(len(tr)) {
		return nil
	}
	return tr[tick]
}

// Truncate returns the first ticks ticks of the trace. The result shares storage with tr.
func (tr Trace) Truncate(ticks int) Trace {
	if ticks < 0 {
		ticks = 0
	}
	if ticks > len(tr) {
		ticks = len(tr)
	}
	return tr[:ticks]
}

// NumArrivals returns the total number of arrivals in the trace.
func (tr Trace) NumArrivals() int {
	n := 0
	for _, group := range tr {
		n += len(group)
	}
	return n
}

// TraceKey identifies a set of generated traces. Two keys with equal fields always
// generate identical traces for the same GenConfig.
type TraceKey struct {
	Distribution string
	NumResources int
	Seed         int64
	// Rate is the Poisson mean, or the per-tick arrival probability for Bernoulli.
	Rate float64
}

// String returns a stable, file-name safe identifier, e.g. "poisson_2_s1_r2".
func (k TraceKey) String() string {
	return fmt.Sprintf("%s_%d_s%d_r%s", k.Distribution, k.NumResources, k.Seed,
		strconv.FormatFloat(k.Rate, 'g', -1, 64))
}

// Validate checks that the key describes a generatable trace.
func (k TraceKey) Validate() error {
	if k.NumResources < 1 {
		return fmt.Errorf("num_resources must be >= 1, got %d", k.NumResources)
	}
	return validateRate(k.Distribution, k.Rate)
}
