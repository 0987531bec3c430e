package sim

import (
	"sort"

	"github.com/reserve-sim/reserve-sim/sim/trace"
)

// Result is the finished record of a run. Series slices are shared with the
// simulator state and must be treated as read-only.
type Result struct {
	Config Config
	Time   []float64
	Series
	SoCMin float64
	SoCMax float64
	Trace  *trace.SimulationTrace // nil if tracing was disabled
}

func newResult(s *Simulator) *Result {
	return &Result{
		Config: s.Config,
		Time:   s.State.Time,
		Series: s.State.Series,
		SoCMin: s.State.SoCMin,
		SoCMax: s.State.SoCMax,
		Trace:  s.Trace,
	}
}

// Len is the number of samples.
func (r *Result) Len() int { return len(r.Time) }

// IndexAt returns the first step whose time is at or after t, clamped to the
// last step.
func (r *Result) IndexAt(t float64) int {
	k := sort.SearchFloat64s(r.Time, t)
	return min(k, r.Len()-1)
}

// Column pairs an exported column name with its samples.
type Column struct {
	Name   string
	Values []float64
}

// Columns lists every logged series in a stable order, time first. Power
// columns are in W, frequencies in Hz.
func (r *Result) Columns() []Column {
	return []Column{
		{"t", r.Time},
		{"f_main", r.FMain},
		{"f_neighbour", r.FNeighbour},
		{"p_" + SourceBESS, r.BESS},
		{"p_" + SourcePumpedStorage, r.PumpedStorage},
		{"p_" + SourceGasTurbine1, r.GasTurbine1},
		{"p_" + SourceGasTurbine2, r.GasTurbine2},
		{"p_" + SourceMFRR, r.MFRR},
		{"p_tie", r.Tie},
		{"p_fcr_main", r.FCRMain},
		{"p_fcr_neighbour", r.FCRNeighbour},
		{"p_total", r.Total},
		{"bess_share", r.BESSShare},
		{"soc", r.SoC},
		{"lambda", r.Lambda},
		{"afrr_request", r.AFRRRequest},
		{"ace", r.ACE},
	}
}
