// Package testutil provides shared test infrastructure for the denarii simulator.
// It holds the golden allocation dataset and assertion helpers used across
// sim/ and sim/alloc/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/allocations.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one allocator invocation with its expected coefficients.
type GoldenTestCase struct {
	Name         string      `json:"name"`
	Policy       string      `json:"policy"`
	Capacity     []float64   `json:"capacity"`
	Demands      [][]float64 `json:"demands"`
	Coefficients []float64   `json:"coefficients"`
	// Tolerance is absolute; iterative policies need a looser one than closed-form ones.
	Tolerance float64 `json:"tolerance"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "allocations.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertWithinCapacity fails if any resource is used beyond capacity by more than relTol.
func AssertWithinCapacity(t *testing.T, capacity []float64, demands [][]float64, coefficients []float64, relTol float64) {
	t.Helper()
	for k, c := range capacity {
		used := 0.0
		for i, d := range demands {
			used += coefficients[i] * d[k]
		}
		if used > c*(1+relTol) {
			t.Errorf("resource %d: used %v exceeds capacity %v", k, used, c)
		}
	}
}
