package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible workload.
// Two workloads generated with the same SimulationKey and identical configuration
// MUST be bit-for-bit identical.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Names ===

// SubsystemArrivals returns the subsystem name for the arrival counts of run N.
func SubsystemArrivals(run int) string {
	return fmt.Sprintf("arrivals_%d", run)
}

// SubsystemFlows returns the subsystem name for the flow attributes
// (service time, demand) of run N.
func SubsystemFlows(run int) string {
	return fmt.Sprintf("flows_%d", run)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG streams per subsystem, so drawing
// more arrivals never shifts the demands drawn for another run.
//
// Derivation: each subsystem gets a PCG source seeded with (masterSeed, fnv1a64(name)).
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.PCG
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.PCG),
	}
}

// Source returns the deterministically-seeded source for the named subsystem.
// The same subsystem name always returns the same instance (cached). Never returns nil.
func (p *PartitionedRNG) Source(name string) rand.Source {
	if src, ok := p.subsystems[name]; ok {
		return src
	}
	src := rand.NewPCG(uint64(p.key), fnv1a64(name))
	p.subsystems[name] = src
	return src
}

// ForSubsystem returns a *rand.Rand drawing from the named subsystem's source.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	return rand.New(p.Source(name))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
