package sim

import (
	"github.com/reserve-sim/reserve-sim/sim/trace"
	"github.com/sirupsen/logrus"
)

// Simulator owns the state of one run and the per-step control pipeline:
// FCR, then AGC with handover, then the conventional cascade, then the
// battery, then the grid. Each stage takes the typed output of the previous
// one, so the order cannot be changed by accident.
type Simulator struct {
	Config Config
	State  *State
	// Trace is nil when tracing is disabled.
	Trace *trace.SimulationTrace

	fcr      *FCR
	agc      *AGC
	dispatch *Dispatcher
	battery  *Battery
	grid     *Grid

	lastShareTarget float64
	hasRun          bool
}

// NewSimulator allocates the state and builds every stage from cfg. The
// configuration is used as given; validation belongs to the caller.
func NewSimulator(cfg Config, traceCfg trace.TraceConfig) *Simulator {
	s := &Simulator{
		Config:          cfg,
		State:           NewState(&cfg),
		fcr:             NewFCR(cfg.FCR, cfg.Time.Dt),
		agc:             NewAGC(&cfg),
		dispatch:        NewDispatcher(&cfg),
		battery:         NewBattery(&cfg),
		grid:            NewGrid(&cfg),
		lastShareTarget: 1.0,
	}
	if traceCfg.Enabled() {
		s.Trace = trace.NewSimulationTrace(traceCfg)
	}
	return s
}

// Step advances the run from step k to k+1. Steps must be taken in order,
// starting at 0 and stopping at Len()-2.
func (s *Simulator) Step(k int) GridOutput {
	st := s.State
	df := st.FMain[k] - s.Config.Grid.F0
	dfNeighbour := st.FNeighbour[k] - s.Config.Grid.F0
	rocof := (df - st.Live.PrevDf) / s.Config.Time.Dt
	st.Live.PrevDf = df

	prev := st.Live
	fcr := s.fcr.Step(st, k, df, dfNeighbour)
	req := s.agc.Step(st, k, df, fcr)
	disp := s.dispatch.Step(st, k, req)
	bess := s.battery.Step(st, k, df, rocof, disp)
	out := s.grid.Step(st, k, df, dfNeighbour, bess)

	if s.Trace != nil {
		s.observe(k, prev, out)
	}
	return out
}

// Run executes all n-1 steps, fills the last slot of the logged series and
// returns the result. Panics if called more than once.
func (s *Simulator) Run() *Result {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true

	n := s.State.Len()
	logrus.Infof("Simulating %d steps (dt=%gs, horizon=%gs, BESS mode %s)",
		n, s.Config.Time.Dt, s.Config.Time.Horizon, s.Config.BESS.Mode)
	for k := 0; k < n-1; k++ {
		s.Step(k)
	}
	s.State.finalize()

	if n > 0 {
		last := n - 1
		logrus.Debugf("Final state: f=%.4f Hz, tie=%.1f MW, λ=%.3f, SoC=%.3f",
			s.State.FMain[last], s.State.Tie[last]/1e6, s.State.Lambda[last], s.State.SoC[last])
	}
	if s.Trace != nil {
		logrus.Debugf("Recorded %d control events", len(s.Trace.Events))
	}
	return newResult(s)
}

// observe records control events that happened during step k.
func (s *Simulator) observe(k int, prev Live, out GridOutput) {
	st := s.State
	for _, name := range SourceNames() {
		before, now := prev.livePower(name), st.Live.livePower(name)
		if before == 0 && now != 0 {
			s.record(k, trace.KindActivation, name, now, "output left zero")
		}
	}

	switch lambda := out.Lambda; {
	case prev.Lambda == 0 && lambda > 0:
		s.record(k, trace.KindHandoverStart, SourceMFRR, lambda, "frequency restored with sustained aFRR effort")
	case prev.Lambda < 1 && lambda == 1:
		s.record(k, trace.KindHandoverComplete, SourceMFRR, lambda, "mFRR carries the full set-point")
	case prev.Lambda > 0 && lambda == 0:
		s.record(k, trace.KindHandoverRelease, SourceMFRR, lambda, "handover condition lost")
	}

	if out.ShareTarget != s.lastShareTarget {
		s.record(k, trace.KindShareTarget, SourceBESS, out.ShareTarget, shareReason(out.ShareTarget, s.lastShareTarget))
		s.lastShareTarget = out.ShareTarget
	}

	next := st.SoC[k+1]
	switch {
	case next == st.SoCMin && st.SoC[k] != st.SoCMin:
		s.record(k, trace.KindSoCLimit, SourceBESS, next, "lower SoC bound reached")
	case next == st.SoCMax && st.SoC[k] != st.SoCMax:
		s.record(k, trace.KindSoCLimit, SourceBESS, next, "upper SoC bound reached")
	}
}

func (s *Simulator) record(k int, kind trace.EventKind, source string, value float64, reason string) {
	s.Trace.RecordEvent(trace.EventRecord{
		Step:   k,
		Time:   s.State.Time[k],
		Kind:   kind,
		Source: source,
		Value:  value,
		Reason: reason,
	})
}

func shareReason(target, last float64) string {
	if target < last {
		return "share trimmed"
	}
	return "share restored"
}
