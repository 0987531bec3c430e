// Package sim provides the discrete-time simulation of frequency control in a
// two-area power system after a sudden loss of generation.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - config.go: scenario parameters, defaults and loader-side validation
//   - state.go: the logged series and the live memory of every actor
//   - simulator.go: the fixed-step loop and the per-step stage pipeline
//
// # Control Pipeline
//
// Every step runs the same stages in order, each consuming the typed output of
// the one before it:
//   - fcr.go: primary droop response of both areas through a first-order lag
//   - agc.go: integral secondary control and the aFRR→mFRR handover (λ)
//   - dispatch.go: priority cascade over pumped storage and two gas turbines
//   - bess.go: battery share, damping and RoCoF term, SoC capability, ramps
//   - grid.go: swing equation of both areas and the tie-line flow
//
// # Sub-packages
//
//   - sim/trace/: control-event recording (activations, handover, share, SoC)
//   - sim/kpi/: nadir, recovery and inertia indicators computed from a Result
//   - sim/report/: CSV, PNG and Prometheus textfile output
package sim
