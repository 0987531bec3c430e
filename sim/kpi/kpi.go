// Package kpi derives the headline indicators of a run: frequency nadir,
// recovery time, tie-line import and inertia figures.
package kpi

import (
	"errors"
	"math"
	"sort"

	"github.com/reserve-sim/reserve-sim/sim"
	"github.com/reserve-sim/reserve-sim/sim/trace"
	"gonum.org/v1/gonum/floats"
)

// ErrNotRecovered is returned when the frequency never re-enters the
// restoration tolerance after the nadir.
var ErrNotRecovered = errors.New("frequency not restored within the horizon")

// rocofWindow is the interval after the fault over which the initial RoCoF is measured.
const rocofWindow = 1.0 // s

// Support splits the power holding the main area at the nadir.
type Support struct {
	FCR      float64 // W, main-area FCR
	Reserves float64 // W, BESS + conventional + mFRR
	Import   float64 // W, tie-line import
}

// Total is the sum of all contributions.
func (s Support) Total() float64 { return s.FCR + s.Reserves + s.Import }

// Report holds the indicators of one run.
type Report struct {
	Nadir      float64 // Hz
	NadirTime  float64 // s
	NadirIndex int

	// TimeToRecovery is measured from the fault; valid only when Recovered.
	Recovered      bool
	TimeToRecovery float64 // s

	MaxImport      float64 // W, largest tie-line flow into the main area; negative if it only exported
	FinalDeviation float64 // Hz, f - F0 at the horizon

	PhysicalInertia   float64 // s, configured H of the main area
	ArtificialInertia float64 // s, H contributed by the BESS RoCoF term
	InitialRoCoF      float64 // Hz/s over the first second after the fault
	EffectiveInertia  float64 // s, inferred from InitialRoCoF; +Inf if it is zero

	SupportAtNadir Support

	// Activation times of reserve sources, from the trace; empty if tracing was off.
	FirstActivation map[string]float64
}

// Compute derives the report from a finished run.
func Compute(res *sim.Result) *Report {
	cfg := res.Config
	nadir := floats.MinIdx(res.FMain)
	last := res.Len() - 1

	r := &Report{
		Nadir:             res.FMain[nadir],
		NadirTime:         res.Time[nadir],
		NadirIndex:        nadir,
		MaxImport:         -floats.Min(res.Tie),
		FinalDeviation:    res.FMain[last] - cfg.Grid.F0,
		PhysicalInertia:   cfg.Grid.Main.Inertia,
		ArtificialInertia: ArtificialInertia(cfg),
		SupportAtNadir: Support{
			FCR:      res.FCRMain[nadir],
			Reserves: res.Total[nadir],
			Import:   -res.Tie[nadir],
		},
		FirstActivation: trace.Summarize(res.Trace).FirstActivation,
	}

	if ttr, err := TimeToRecovery(res); err == nil {
		r.Recovered = true
		r.TimeToRecovery = ttr
	}
	r.InitialRoCoF, r.EffectiveInertia = EffectiveInertia(res)
	return r
}

// TimeToRecovery returns the time from the fault until the first sample at or
// after the nadir whose deviation is within the restoration tolerance.
func TimeToRecovery(res *sim.Result) (float64, error) {
	cfg := res.Config
	nadir := floats.MinIdx(res.FMain)
	for k := nadir; k < res.Len(); k++ {
		if math.Abs(res.FMain[k]-cfg.Grid.F0) <= cfg.Handover.RestoreTolHz {
			return res.Time[k] - cfg.Fault.TFault, nil
		}
	}
	return 0, ErrNotRecovered
}

// ArtificialInertia is the inertia constant emulated by the BESS RoCoF gain:
// H = k_rocof·F0 / (2·S_base).
func ArtificialInertia(cfg sim.Config) float64 {
	return cfg.BESS.KRocof * cfg.Grid.F0 / (2 * cfg.Grid.Main.SBase)
}

// EffectiveInertia measures the average RoCoF over the first second after the
// fault, from the first sample strictly after the fault to the first sample
// strictly after fault+1s, and inverts the swing equation for H. Returns NaN
// for both when the horizon is too short.
func EffectiveInertia(res *sim.Result) (rocof, inertia float64) {
	cfg := res.Config
	start := sort.Search(res.Len(), func(i int) bool { return res.Time[i] > cfg.Fault.TFault })
	end := sort.Search(res.Len(), func(i int) bool { return res.Time[i] > cfg.Fault.TFault+rocofWindow })
	if end >= res.Len() || end <= start {
		return math.NaN(), math.NaN()
	}
	rocof = (res.FMain[end] - res.FMain[start]) / (res.Time[end] - res.Time[start])
	if rocof == 0 {
		return 0, math.Inf(1)
	}
	return rocof, -(cfg.Fault.PLoss * cfg.Grid.F0) / (2 * cfg.Grid.Main.SBase * rocof)
}
