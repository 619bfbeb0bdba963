package sim

import (
	"fmt"

	"github.com/taegyunkim/denarii/sim/alloc"
)

// scriptedSource replays a fixed set of arrivals keyed by tick.
type scriptedSource map[int64][]Arrival

func (s scriptedSource) ArrivalsAt(tick int64) []Arrival {
	return s[tick]
}

// spyAllocator wraps an allocator and counts calls per tick.
// When err is set every call fails; when truncate is set one coefficient is dropped.
type spyAllocator struct {
	inner    alloc.Allocator
	calls    []int // number of flows passed on each call
	err      error
	truncate bool
}

func newSpy() *spyAllocator {
	return &spyAllocator{inner: &alloc.DRF{}}
}

func (s *spyAllocator) Name() string { return "spy" }

func (s *spyAllocator) Allocate(capacity []float64, demands [][]float64) ([]float64, error) {
	s.calls = append(s.calls, len(demands))
	if s.err != nil {
		return nil, s.err
	}
	coef, err := s.inner.Allocate(capacity, demands)
	if err != nil {
		return nil, err
	}
	if s.truncate && len(coef) > 0 {
		coef = coef[:len(coef)-1]
	}
	return coef, nil
}

// mustSimulator builds a simulator or panics; tests use it with known-good configs.
func mustSimulator(ticks int64, capacity []float64, a alloc.Allocator, src ArrivalSource) *Simulator {
	s, err := NewSimulator(SimConfig{Ticks: ticks, Capacity: capacity}, a, src)
	if err != nil {
		panic(fmt.Sprintf("NewSimulator: %v", err))
	}
	return s
}
