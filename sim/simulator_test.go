package sim

import (
	"math"
	"testing"

	"github.com/reserve-sim/reserve-sim/sim/internal/testutil"
	"github.com/reserve-sim/reserve-sim/sim/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// runScenario runs cfg to completion with event tracing on.
func runScenario(t *testing.T, cfg Config) *Result {
	t.Helper()
	res := NewSimulator(cfg, trace.TraceConfig{Level: trace.TraceLevelEvents}).Run()
	require.Equal(t, cfg.NumSteps(), res.Len())
	return res
}

// defaultResult caches the default 3000 s scenario shared by several tests.
var defaultResult *Result

func defaultScenario(t *testing.T) *Result {
	t.Helper()
	if defaultResult == nil {
		defaultResult = runScenario(t, DefaultConfig())
	}
	return defaultResult
}

func TestSimulator_DefaultScenario_ArrestsAndRestores(t *testing.T) {
	// GIVEN the default 3 GW loss at t=1 s
	res := defaultScenario(t)
	cfg := res.Config

	// THEN the frequency stays nominal until the fault
	for k := 0; res.Time[k] <= cfg.Fault.TFault; k++ {
		require.Equal(t, cfg.Grid.F0, res.FMain[k], "step %d", k)
	}

	// THEN the nadir falls after the fault, well inside the first minute
	nadir := floats.MinIdx(res.FMain)
	assert.Greater(t, res.Time[nadir], cfg.Fault.TFault)
	assert.InDelta(t, 13.0, res.Time[nadir], 0.5)
	assert.InDelta(t, 49.322, res.FMain[nadir], 0.005)

	// THEN the frequency is back inside the restoration tolerance at the horizon
	last := res.Len() - 1
	assert.LessOrEqual(t, math.Abs(res.FMain[last]-cfg.Grid.F0), cfg.Handover.RestoreTolHz)

	// THEN the main area imports at the tie capacity while the deviation is large
	assert.Equal(t, -cfg.Grid.TieCapacity, floats.Min(res.Tie))
}

func TestSimulator_DefaultScenario_HandsOverToMFRR(t *testing.T) {
	res := defaultScenario(t)

	assert.Equal(t, 1.0, floats.Max(res.Lambda), "λ reaches one")
	assert.InDelta(t, res.Config.Reserves.MFRR.PMax, floats.Max(res.MFRR), 1.0)

	summary := trace.Summarize(res.Trace)
	assert.InDelta(t, 1996.6, summary.FirstHandoverAt, 5.0)
	assert.InDelta(t, summary.FirstHandoverAt, summary.FirstActivation[SourceMFRR], 1e-9,
		"mFRR output leaves zero the step λ does")
}

func TestSimulator_DefaultScenario_ActivationDelays(t *testing.T) {
	res := defaultScenario(t)
	cfg := res.Config
	summary := trace.Summarize(res.Trace)

	tests := []struct {
		source string
		src    SourceConfig
	}{
		{SourceBESS, cfg.Reserves.BESS},
		{SourcePumpedStorage, cfg.Reserves.PumpedStorage},
		{SourceGasTurbine1, cfg.Reserves.GasTurbine1},
		{SourceGasTurbine2, cfg.Reserves.GasTurbine2},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			first, ok := summary.FirstActivation[tt.source]
			require.True(t, ok, "source never activated")
			assert.InDelta(t, cfg.Fault.TFault+tt.src.Delay, first, cfg.Time.Dt/2)

			// Nothing before the delay
			series := res.SourcePower(tt.source)
			for k := 0; res.Time[k] < cfg.Fault.TFault+tt.src.Delay-1e-9; k++ {
				require.Equal(t, 0.0, series[k], "%s at t=%v", tt.source, res.Time[k])
			}
		})
	}
}

func TestSimulator_DefaultScenario_Invariants(t *testing.T) {
	res := defaultScenario(t)
	cfg := res.Config
	dt := cfg.Time.Dt

	testutil.AssertWithin(t, "SoC", res.SoC, res.SoCMin, res.SoCMax, 0)
	testutil.AssertWithin(t, "λ", res.Lambda, 0, 1, 0)
	testutil.AssertWithin(t, "share", res.BESSShare, 0, 1, 0)
	testutil.AssertWithin(t, "BESS", res.BESS, -cfg.Reserves.BESS.PMax, cfg.Reserves.BESS.PMax, 0)
	testutil.AssertWithin(t, "pumped storage", res.PumpedStorage, 0, cfg.Reserves.PumpedStorage.PMax, 1e-3)
	testutil.AssertWithin(t, "gas turbine 1", res.GasTurbine1, 0, cfg.Reserves.GasTurbine1.PMax, 1e-3)
	testutil.AssertWithin(t, "gas turbine 2", res.GasTurbine2, 0, cfg.Reserves.GasTurbine2.PMax, 1e-3)
	testutil.AssertWithin(t, "tie", res.Tie, -cfg.Grid.TieCapacity, cfg.Grid.TieCapacity, 0)

	const tol = 1e-3
	testutil.AssertRampBounded(t, "BESS", res.BESS, -cfg.BESS.RampOutMWPerSec*1e6*dt, cfg.Reserves.BESS.Ramp*dt, tol)
	for _, s := range []struct {
		name   string
		series []float64
		ramp   float64
	}{
		{"pumped storage", res.PumpedStorage, cfg.Reserves.PumpedStorage.Ramp},
		{"gas turbine 1", res.GasTurbine1, cfg.Reserves.GasTurbine1.Ramp},
		{"gas turbine 2", res.GasTurbine2, cfg.Reserves.GasTurbine2.Ramp},
	} {
		testutil.AssertRampBounded(t, s.name, s.series, -s.ramp*dt, s.ramp*dt, tol)
	}
	testutil.AssertRampBounded(t, "mFRR", res.MFRR, 0, cfg.Reserves.MFRR.Ramp*dt, tol)

	for k := range res.Time {
		sum := res.BESS[k] + res.PumpedStorage[k] + res.GasTurbine1[k] + res.GasTurbine2[k] + res.MFRR[k]
		require.InDelta(t, sum, res.Total[k], 1e-3, "total at step %d", k)
	}
}

func TestSimulator_Run_FinalizeCopiesPenultimate(t *testing.T) {
	res := defaultScenario(t)
	n := res.Len()

	for _, s := range [][]float64{res.BESS, res.PumpedStorage, res.MFRR, res.Total, res.BESSShare, res.Lambda, res.FCRMain} {
		assert.Equal(t, s[n-2], s[n-1])
	}
	// Frequencies are integrated into the last slot, not copied
	assert.NotEqual(t, res.FMain[n-2], res.FMain[n-1])
}

func TestSimulator_Run_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time.Horizon = 400

	a := NewSimulator(cfg, trace.TraceConfig{Level: trace.TraceLevelNone}).Run()
	b := NewSimulator(cfg, trace.TraceConfig{Level: trace.TraceLevelNone}).Run()

	assert.Equal(t, a.Series, b.Series)
	assert.Nil(t, a.Trace)
}

func TestSimulator_Run_Twice_Panics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time.Horizon = 1
	s := NewSimulator(cfg, trace.TraceConfig{})
	s.Run()

	assert.Panics(t, func() { s.Run() })
}

func TestSimulator_Run_SingleSample(t *testing.T) {
	// GIVEN a zero horizon
	cfg := DefaultConfig()
	cfg.Time.Horizon = 0

	// WHEN the simulator runs
	res := NewSimulator(cfg, trace.TraceConfig{}).Run()

	// THEN the initial sample is returned untouched
	require.Equal(t, 1, res.Len())
	assert.Equal(t, cfg.Grid.F0, res.FMain[0])
	assert.Equal(t, cfg.BESS.InitialSoC, res.SoC[0])
}

func TestSimulator_ModeOff_BatteryIdle(t *testing.T) {
	// GIVEN the battery switched off
	cfg := DefaultConfig()
	cfg.BESS.Mode = ModeOff
	cfg.Time.Horizon = 600

	// WHEN the scenario runs
	res := runScenario(t, cfg)

	// THEN the battery never injects, SoC never moves, and the nadir is deeper
	// than with the battery
	assert.True(t, testutil.AllZero(res.BESS))
	testutil.AssertWithin(t, "SoC", res.SoC, cfg.BESS.InitialSoC, cfg.BESS.InitialSoC, 0)
	assert.Less(t, floats.Min(res.FMain), floats.Min(defaultScenario(t).FMain))
	_, activated := trace.Summarize(res.Trace).FirstActivation[SourceBESS]
	assert.False(t, activated)
}

func TestSimulator_UnreachableHandover_NoMFRR(t *testing.T) {
	// GIVEN handover thresholds that can never be met
	cfg := DefaultConfig()
	cfg.Handover.ACEThreshold = 1e30
	cfg.Handover.UtilThreshold = 2.0

	// WHEN the scenario runs
	res := runScenario(t, cfg)

	// THEN λ and mFRR stay at zero and aFRR alone restores the frequency
	assert.True(t, testutil.AllZero(res.Lambda))
	assert.True(t, testutil.AllZero(res.MFRR))
	last := res.Len() - 1
	assert.LessOrEqual(t, math.Abs(res.FMain[last]-cfg.Grid.F0), cfg.Handover.RestoreTolHz)
	assert.Empty(t, res.Trace.Filter(trace.KindHandoverStart))
}

func TestSimulator_SmallBattery_SoCSaturatesLow(t *testing.T) {
	// GIVEN a 1 MWh battery facing a sustained deficit
	cfg := DefaultConfig()
	cfg.BESS.EnergyMWh = 1.0
	cfg.Time.Horizon = 600

	// WHEN the scenario runs
	res := runScenario(t, cfg)

	// THEN SoC drains to its lower bound and never leaves the band
	testutil.AssertWithin(t, "SoC", res.SoC, res.SoCMin, res.SoCMax, 0)
	assert.InDelta(t, res.SoCMin, floats.Min(res.SoC), 1e-3)
	for k := range res.Time {
		if res.SoC[k] == res.SoCMin {
			require.LessOrEqual(t, res.BESS[k], 0.0, "no discharge at the lower bound (step %d)", k)
		}
	}
}

func TestSimulator_SurplusEvent_SoCSaturatesHigh(t *testing.T) {
	// GIVEN a sudden 3 GW load loss, so the frequency rises, and a 1 MWh battery
	cfg := DefaultConfig()
	cfg.Fault.PLoss = -3000e6
	cfg.BESS.EnergyMWh = 1.0
	cfg.Time.Horizon = 600

	// WHEN the scenario runs
	res := runScenario(t, cfg)

	// THEN the battery charges, SoC fills to its upper bound, and the
	// conventional cascade stays idle since it only covers deficits
	assert.Less(t, floats.Min(res.BESS), 0.0)
	testutil.AssertWithin(t, "SoC", res.SoC, res.SoCMin, res.SoCMax, 0)
	assert.InDelta(t, res.SoCMax, floats.Max(res.SoC), 1e-3)
	assert.True(t, testutil.AllZero(res.PumpedStorage))
	assert.True(t, testutil.AllZero(res.MFRR))
	assert.Greater(t, floats.Max(res.FMain), cfg.Grid.F0)
	for k := range res.Time {
		if res.SoC[k] == res.SoCMax {
			require.GreaterOrEqual(t, res.BESS[k], 0.0, "no charging at the upper bound (step %d)", k)
		}
	}

	// THEN the charge is clipped toward zero as the headroom closes
	last := res.Len() - 1
	assert.Less(t, math.Abs(res.BESS[last]), 1e-3*math.Abs(floats.Min(res.BESS)))
}

func TestSimulator_ReducedLoss_ConventionalSourcesNeverAbsorb(t *testing.T) {
	// GIVEN a 1.5 GW loss, small enough that the cascade ramps back down
	// while the residual request shrinks below pumped storage output
	cfg := DefaultConfig()
	cfg.Fault.PLoss = 1500e6

	// WHEN the scenario runs over the default horizon
	res := runScenario(t, cfg)

	// THEN no conventional source or mFRR ever goes below zero
	for _, name := range []string{SourcePumpedStorage, SourceGasTurbine1, SourceGasTurbine2, SourceMFRR} {
		assert.GreaterOrEqual(t, floats.Min(res.SourcePower(name)), 0.0, name)
	}
}

func TestSimulator_Trace_DisabledIsNil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time.Horizon = 10
	s := NewSimulator(cfg, trace.TraceConfig{Level: trace.TraceLevelNone})
	assert.Nil(t, s.Trace)
	assert.Nil(t, s.Run().Trace)
}

func TestResult_IndexAt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time.Horizon = 10
	res := NewSimulator(cfg, trace.TraceConfig{}).Run()

	assert.Equal(t, 0, res.IndexAt(-5))
	assert.Equal(t, 0, res.IndexAt(0))
	assert.Equal(t, 100, res.IndexAt(1e6))
	assert.InDelta(t, 5.0, res.Time[res.IndexAt(5.0)], cfg.Time.Dt)
}

func TestResult_Columns_AlignedWithTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time.Horizon = 10
	res := NewSimulator(cfg, trace.TraceConfig{}).Run()

	cols := res.Columns()
	assert.Equal(t, "t", cols[0].Name)
	seen := map[string]bool{}
	for _, c := range cols {
		assert.Len(t, c.Values, res.Len(), c.Name)
		assert.False(t, seen[c.Name], "duplicate column %s", c.Name)
		seen[c.Name] = true
	}
}
