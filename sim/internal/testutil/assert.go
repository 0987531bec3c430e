// Package testutil provides shared assertion helpers for the sim/ test packages.
// It has no dependency on sim/ so any sim sub-package can import it.
package testutil

import (
	"math"
	"testing"
)

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

// AssertWithin fails if any sample of series lies outside [lo, hi], allowing
// an absolute slack of tol.
func AssertWithin(t *testing.T, name string, series []float64, lo, hi, tol float64) {
	t.Helper()
	for k, v := range series {
		if v < lo-tol || v > hi+tol {
			t.Errorf("%s[%d] = %v outside [%v, %v]", name, k, v, lo, hi)
			return
		}
	}
}

// AssertRampBounded fails if any step-to-step change of series leaves [down, up].
func AssertRampBounded(t *testing.T, name string, series []float64, down, up, tol float64) {
	t.Helper()
	for k := 1; k < len(series); k++ {
		d := series[k] - series[k-1]
		if d < down-tol || d > up+tol {
			t.Errorf("%s: step %d changes by %v, allowed [%v, %v]", name, k, d, down, up)
			return
		}
	}
}

// AllZero reports whether every sample of series is exactly zero.
func AllZero(series []float64) bool {
	for _, v := range series {
		if v != 0 {
			return false
		}
	}
	return true
}
