package kpi

import (
	"errors"
	"math"
	"testing"

	"github.com/reserve-sim/reserve-sim/sim"
	"github.com/reserve-sim/reserve-sim/sim/internal/testutil"
	"github.com/reserve-sim/reserve-sim/sim/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticResult builds a Result with the given main-area frequency trace and
// zeros elsewhere, sampled every second with the fault at t=1.
func syntheticResult(fMain []float64) *sim.Result {
	cfg := sim.DefaultConfig()
	cfg.Time.Dt = 1
	cfg.Time.Horizon = float64(len(fMain) - 1)
	n := len(fMain)
	res := &sim.Result{Config: cfg, Time: make([]float64, n)}
	for k := range res.Time {
		res.Time[k] = float64(k)
	}
	res.FMain = fMain
	res.Tie = make([]float64, n)
	res.FCRMain = make([]float64, n)
	res.Total = make([]float64, n)
	return res
}

func TestTimeToRecovery_FromNadir(t *testing.T) {
	// GIVEN a trace that is inside tolerance before the nadir, dips, then recovers at t=4
	res := syntheticResult([]float64{50, 49.99, 49.5, 49.9, 49.985, 49.99})

	// WHEN the recovery time is computed
	ttr, err := TimeToRecovery(res)

	// THEN the search starts at the nadir and is measured from the fault
	require.NoError(t, err)
	assert.Equal(t, 3.0, ttr)
}

func TestTimeToRecovery_NotRecovered(t *testing.T) {
	res := syntheticResult([]float64{50, 49.6, 49.5, 49.7, 49.8})

	_, err := TimeToRecovery(res)

	assert.True(t, errors.Is(err, ErrNotRecovered))
	assert.False(t, Compute(res).Recovered)
}

func TestEffectiveInertia_ShortHorizonIsNaN(t *testing.T) {
	res := syntheticResult([]float64{50, 49.9})

	rocof, h := EffectiveInertia(res)

	assert.True(t, math.IsNaN(rocof))
	assert.True(t, math.IsNaN(h))
}

func TestEffectiveInertia_FlatFrequencyIsInfinite(t *testing.T) {
	res := syntheticResult([]float64{50, 50, 50, 50})

	rocof, h := EffectiveInertia(res)

	assert.Equal(t, 0.0, rocof)
	assert.True(t, math.IsInf(h, 1))
}

func TestArtificialInertia_Default(t *testing.T) {
	// 1 GW/(Hz/s) at 50 Hz over 60 GW
	testutil.AssertFloat64Equal(t, "H_bess", 1.0/2.4, ArtificialInertia(sim.DefaultConfig()), 1e-12)
}

func TestCompute_DefaultScenario(t *testing.T) {
	// GIVEN the default scenario with tracing on
	res := sim.NewSimulator(sim.DefaultConfig(), trace.TraceConfig{Level: trace.TraceLevelEvents}).Run()

	// WHEN the indicators are computed
	r := Compute(res)

	// THEN the nadir, recovery, import and inertia figures match the run
	assert.InDelta(t, 49.322, r.Nadir, 0.005)
	assert.InDelta(t, 13.0, r.NadirTime, 0.5)
	assert.Equal(t, res.FMain[r.NadirIndex], r.Nadir)
	require.True(t, r.Recovered)
	assert.InDelta(t, 1995.6, r.TimeToRecovery, 5.0)
	assert.Equal(t, res.Config.Grid.TieCapacity, r.MaxImport)
	assert.LessOrEqual(t, math.Abs(r.FinalDeviation), res.Config.Handover.RestoreTolHz)

	assert.Equal(t, 3.5, r.PhysicalInertia)
	assert.Less(t, r.InitialRoCoF, 0.0)
	assert.InDelta(t, 4.38, r.EffectiveInertia, 0.05)
	assert.Greater(t, r.EffectiveInertia, r.PhysicalInertia, "fast reserves add apparent inertia")

	// At the nadir the three contributions cover most of the loss
	assert.Greater(t, r.SupportAtNadir.Import, 0.0)
	assert.Greater(t, r.SupportAtNadir.FCR, 0.0)
	assert.InDelta(t, 2.195e9, r.SupportAtNadir.Total(), 0.02e9)

	assert.InDelta(t, 1.1, r.FirstActivation[sim.SourceBESS], 0.05)
}

func TestCompute_WithoutTrace_NoActivations(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Time.Horizon = 30
	res := sim.NewSimulator(cfg, trace.TraceConfig{}).Run()

	r := Compute(res)

	assert.Empty(t, r.FirstActivation)
	assert.False(t, r.Recovered)
}

func TestCompute_ExportOnly_NegativeMaxImport(t *testing.T) {
	// GIVEN a run whose tie line only ever exports from the main area
	res := syntheticResult([]float64{50, 50.1, 50.2, 50.1})
	res.Tie = []float64{100e6, 100e6, 300e6, 200e6}

	// WHEN the indicators are computed
	r := Compute(res)

	// THEN the max import is the smallest export, negated
	assert.Equal(t, -100e6, r.MaxImport)
}
