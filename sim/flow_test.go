package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlow_Fields(t *testing.T) {
	demand := []float64{2, 3}
	f, err := NewFlow(1, 3, 5.0, demand)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, int64(3), f.ArrivalTick)
	assert.Equal(t, 5.0, f.RequiredProgress)
	assert.Equal(t, []float64{2, 3}, f.Demand)
	assert.Equal(t, StateUnscheduled, f.State())
	assert.False(t, f.IsCompleted())
	assert.False(t, f.IsScheduled())
	assert.Nil(t, f.Allocation())

	// The flow owns its demand.
	demand[0] = 99
	assert.Equal(t, 2.0, f.Demand[0])
}

func TestNewFlow_InvalidDemand(t *testing.T) {
	tests := []struct {
		name     string
		required float64
		demand   []float64
	}{
		{"negative entry", 5, []float64{1, -1}},
		{"NaN entry", 5, []float64{math.NaN()}},
		{"empty demand", 5, nil},
		{"zero required progress", 0, []float64{1}},
		{"negative required progress", -2, []float64{1}},
		{"NaN required progress", math.NaN(), []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFlow(1, 0, tt.required, tt.demand)
			assert.Nil(t, f)
			assert.True(t, errors.Is(err, ErrInvalidDemand), "got %v", err)
		})
	}
}

func TestFlow_Allocate_DimensionMismatch(t *testing.T) {
	f, err := NewFlow(1, 0, 5, []float64{2, 3})
	require.NoError(t, err)

	err = f.Allocate([]float64{1})
	assert.True(t, errors.Is(err, ErrDimensionMismatch), "got %v", err)
	assert.Equal(t, StateUnscheduled, f.State(), "a rejected allocation leaves the flow unscheduled")
}

// TestFlow_HalfAllocation_DoublesServiceTime mirrors the canonical lifecycle example:
// half of the requested resources means twice the ticks to complete.
func TestFlow_HalfAllocation_DoublesServiceTime(t *testing.T) {
	// GIVEN a flow needing 5 units of progress
	f, err := NewFlow(1, 3, 5.0, []float64{2, 3})
	require.NoError(t, err)

	// WHEN it is granted half of its demand
	require.NoError(t, f.Allocate([]float64{1, 1.5}))
	assert.True(t, f.IsScheduled())

	// THEN it completes on the 10th step, not before
	for tick := int64(4); tick < 13; tick++ {
		done, err := f.Step(tick)
		require.NoError(t, err)
		require.False(t, done, "completed early at tick %d", tick)
	}
	done, err := f.Step(13)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, f.IsCompleted())
	departure, ok := f.DepartureTick()
	assert.True(t, ok)
	assert.Equal(t, int64(13), departure)
	assert.Equal(t, int64(10), f.Latency())
}

func TestFlow_Step_UnscheduledDoesNotProgress(t *testing.T) {
	f, err := NewFlow(1, 0, 1, []float64{4})
	require.NoError(t, err)

	for tick := int64(0); tick < 5; tick++ {
		done, err := f.Step(tick)
		require.NoError(t, err)
		assert.False(t, done)
	}
	assert.Equal(t, 0.0, f.Progress())
	assert.Equal(t, int64(-1), f.Latency())
}

func TestFlow_Step_ZeroAllocationStaysScheduled(t *testing.T) {
	f, err := NewFlow(1, 0, 1, []float64{4, 4})
	require.NoError(t, err)
	require.NoError(t, f.Allocate([]float64{0, 0}))

	done, err := f.Step(1)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, StateScheduled, f.State())
	assert.Equal(t, 0.0, f.Progress())
}

func TestFlow_Step_ProgressUsesFirstDimensionOnly(t *testing.T) {
	// Resource 1 is throttled to 10% but progress only reads resource 0.
	f, err := NewFlow(1, 0, 10, []float64{4, 10})
	require.NoError(t, err)
	require.NoError(t, f.Allocate([]float64{2, 1}))

	_, err = f.Step(1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f.Progress())
}

func TestFlow_Step_ZeroProgressDemand(t *testing.T) {
	t.Run("nothing granted on the progress dimension completes immediately", func(t *testing.T) {
		f, err := NewFlow(1, 2, 7, []float64{0, 5})
		require.NoError(t, err)
		require.NoError(t, f.Allocate([]float64{0, 2.5}))

		done, err := f.Step(4)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, 7.0, f.Progress())
		assert.False(t, math.IsNaN(f.Progress()))
	})

	t.Run("granted amount on a zero demand is an error", func(t *testing.T) {
		f, err := NewFlow(1, 2, 7, []float64{0, 5})
		require.NoError(t, err)
		require.NoError(t, f.Allocate([]float64{1, 2.5}))

		done, err := f.Step(4)
		assert.False(t, done)
		assert.True(t, errors.Is(err, ErrDivisionByZero), "got %v", err)
		assert.Equal(t, 0.0, f.Progress())
	})
}

func TestFlow_CompletedIsTerminal(t *testing.T) {
	f, err := NewFlow(1, 0, 1, []float64{4})
	require.NoError(t, err)
	require.NoError(t, f.Allocate([]float64{4}))
	done, err := f.Step(1)
	require.NoError(t, err)
	require.True(t, done)

	_, err = f.Step(2)
	assert.True(t, errors.Is(err, ErrFlowCompleted))
	assert.True(t, errors.Is(f.Allocate([]float64{1}), ErrFlowCompleted))

	departure, _ := f.DepartureTick()
	assert.Equal(t, int64(1), departure, "departure tick is set exactly once")
}

func TestFlow_ProgressMonotonic(t *testing.T) {
	f, err := NewFlow(1, 0, 100, []float64{10, 10})
	require.NoError(t, err)

	grants := [][]float64{{10, 10}, {5, 5}, {0, 0}, {2.5, 2.5}, {10, 10}}
	last := f.Progress()
	for tick, g := range grants {
		require.NoError(t, f.Allocate(g))
		_, err := f.Step(int64(tick))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f.Progress(), last)
		last = f.Progress()
	}
	assert.InDelta(t, 2.75, last, 1e-12)
}
