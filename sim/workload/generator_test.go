package workload

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taegyunkim/denarii/sim"
)

func poissonKey(seed int64) TraceKey {
	return TraceKey{Distribution: DistributionPoisson, NumResources: 2, Seed: seed, Rate: 2}
}

func TestGenerate_SameKey_IdenticalTraces(t *testing.T) {
	// GIVEN two generations from the same key
	a, err := Generate(poissonKey(1), DefaultGenConfig())
	require.NoError(t, err)
	b, err := Generate(poissonKey(1), DefaultGenConfig())
	require.NoError(t, err)

	// THEN they are identical
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("traces differ (-first +second):\n%s", diff)
	}
	require.Len(t, a, MaxRuns)
	for _, tr := range a {
		assert.Len(t, tr, MaxTraceTicks)
	}
}

func TestGenerate_DifferentSeeds_DifferentTraces(t *testing.T) {
	a, err := Generate(poissonKey(1), DefaultGenConfig())
	require.NoError(t, err)
	b, err := Generate(poissonKey(2), DefaultGenConfig())
	require.NoError(t, err)
	assert.NotEqual(t, a[0], b[0])
}

func TestGenerate_RunsAreIndependentStreams(t *testing.T) {
	// GIVEN the full generation for a key
	cfg := DefaultGenConfig()
	traces, err := Generate(poissonKey(7), cfg)
	require.NoError(t, err)

	// WHEN run 2 is generated alone from a fresh RNG
	alone := generateRun(sim.NewPartitionedRNG(sim.NewSimulationKey(7)), poissonKey(7), cfg, 2, MaxTraceTicks)

	// THEN it matches, so runs 0 and 1 did not consume its streams
	if diff := cmp.Diff(traces[2], alone); diff != "" {
		t.Errorf("run 2 depends on earlier runs (-full +alone):\n%s", diff)
	}
	assert.NotEqual(t, traces[0], traces[1])
}

func TestGenerate_AttributesWithinBounds(t *testing.T) {
	cfg := DefaultGenConfig()
	traces, err := Generate(poissonKey(3), cfg)
	require.NoError(t, err)

	lastID := int64(-1)
	for _, group := range traces[0] {
		for _, a := range group {
			assert.Greater(t, a.ID, lastID, "IDs must strictly increase")
			lastID = a.ID
			assert.GreaterOrEqual(t, a.RequiredProgress, 10.0)
			assert.Less(t, a.RequiredProgress, 20.0)
			assert.Equal(t, math.Trunc(a.RequiredProgress), a.RequiredProgress)
			require.Len(t, a.Demand, 2)
			for _, d := range a.Demand {
				assert.GreaterOrEqual(t, d, 1.0)
				assert.Less(t, d, 11.0)
			}
		}
	}
}

func TestGenerate_PoissonMeanArrivals(t *testing.T) {
	traces, err := Generate(poissonKey(5), DefaultGenConfig())
	require.NoError(t, err)
	for run, tr := range traces {
		mean := float64(tr.NumArrivals()) / float64(len(tr))
		// Standard error of the mean is sqrt(2/10000) ~ 0.014.
		assert.InDelta(t, 2.0, mean, 0.1, "run %d", run)
	}
}

func TestGenerate_Bernoulli(t *testing.T) {
	t.Run("p=1 yields exactly one arrival per tick", func(t *testing.T) {
		key := TraceKey{Distribution: DistributionBernoulli, NumResources: 3, Seed: 1, Rate: 1}
		traces, err := Generate(key, DefaultGenConfig())
		require.NoError(t, err)
		for tick, group := range traces[0] {
			if len(group) != 1 {
				t.Fatalf("tick %d: got %d arrivals, want 1", tick, len(group))
			}
		}
	})

	t.Run("p=0 yields nothing", func(t *testing.T) {
		key := TraceKey{Distribution: DistributionBernoulli, NumResources: 3, Seed: 1, Rate: 0}
		traces, err := Generate(key, DefaultGenConfig())
		require.NoError(t, err)
		assert.Equal(t, 0, traces[0].NumArrivals())
	})
}

func TestGenerate_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		key  TraceKey
		cfg  GenConfig
	}{
		{"unknown distribution", TraceKey{Distribution: "uniform", NumResources: 2, Rate: 1}, DefaultGenConfig()},
		{"zero resources", TraceKey{Distribution: DistributionPoisson, NumResources: 0, Rate: 1}, DefaultGenConfig()},
		{"non-positive lambda", TraceKey{Distribution: DistributionPoisson, NumResources: 2, Rate: 0}, DefaultGenConfig()},
		{"bernoulli p above 1", TraceKey{Distribution: DistributionBernoulli, NumResources: 2, Rate: 1.5}, DefaultGenConfig()},
		{"empty service range", poissonKey(1), GenConfig{ServiceTimeMin: 10, ServiceTimeMax: 10, DemandMin: 1, DemandMax: 2}},
		{"zero service time", poissonKey(1), GenConfig{ServiceTimeMin: 0, ServiceTimeMax: 10, DemandMin: 1, DemandMax: 2}},
		{"empty demand range", poissonKey(1), GenConfig{ServiceTimeMin: 1, ServiceTimeMax: 2, DemandMin: 3, DemandMax: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.key, tt.cfg)
			assert.Error(t, err)
		})
	}
}
