package workload

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/taegyunkim/denarii/sim"
)

// arrivalCounter samples how many flows arrive in one tick.
type arrivalCounter interface {
	Rand() float64
}

// newArrivalCounter builds the per-tick arrival sampler for a distribution.
// Panics on unknown names; callers validate the key first.
func newArrivalCounter(distribution string, rate float64, src rand.Source) arrivalCounter {
	switch distribution {
	case DistributionPoisson:
		return distuv.Poisson{Lambda: rate, Src: src}
	case DistributionBernoulli:
		return distuv.Bernoulli{P: rate, Src: src}
	default:
		panic(fmt.Sprintf("unhandled distribution %q", distribution))
	}
}

// Generate creates MaxRuns traces of MaxTraceTicks ticks for the key.
// Deterministic given the same key and config; each run draws from its own RNG
// streams, so runs are independent of one another.
func Generate(key TraceKey, cfg GenConfig) ([]Trace, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trace key: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation config: %w", err)
	}

	logrus.Infof("Generating %d traces of %d ticks for key %s", MaxRuns, MaxTraceTicks, key)
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(key.Seed))
	traces := make([]Trace, MaxRuns)
	for run := range traces {
		traces[run] = generateRun(rng, key, cfg, run, MaxTraceTicks)
		logrus.Debugf("Run %d: %d arrivals from %s(%v)", run, traces[run].NumArrivals(), key.Distribution, key.Rate)
	}
	return traces, nil
}

// generateRun draws one trace. Arrival counts come from the run's arrivals stream,
// service times and demands from its flows stream.
//
// IDs are tick + (arrivals before this one), which strictly increases across the trace.
func generateRun(rng *sim.PartitionedRNG, key TraceKey, cfg GenConfig, run, ticks int) Trace {
	counter := newArrivalCounter(key.Distribution, key.Rate, rng.Source(sim.SubsystemArrivals(run)))
	flowRNG := rng.ForSubsystem(sim.SubsystemFlows(run))

	trace := make(Trace, ticks)
	var seen int64
	for tick := 0; tick < ticks; tick++ {
		n := int(counter.Rand())
		if n == 0 {
			continue
		}
		group := make([]sim.Arrival, n)
		for i := range group {
			serviceTime := cfg.ServiceTimeMin + flowRNG.IntN(cfg.ServiceTimeMax-cfg.ServiceTimeMin)
			demand := make([]float64, key.NumResources)
			for k := range demand {
				demand[k] = float64(cfg.DemandMin + flowRNG.IntN(cfg.DemandMax-cfg.DemandMin))
			}
			group[i] = sim.Arrival{
				ID:               int64(tick) + seen,
				RequiredProgress: float64(serviceTime),
				Demand:           demand,
			}
			seen++
		}
		trace[tick] = group
	}
	return trace
}
