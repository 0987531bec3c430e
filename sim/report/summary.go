// Package report renders a finished run: a printed KPI summary, a CSV export
// of every logged series, stacked PNG panels and a Prometheus textfile.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/reserve-sim/reserve-sim/sim/kpi"
	"github.com/reserve-sim/reserve-sim/sim/trace"
)

// PrintSummary writes the KPI block and, when events were traced, the trace
// summary.
func PrintSummary(w io.Writer, rep *kpi.Report, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Frequency Control KPIs ===")
	fmt.Fprintf(w, "Frequency nadir      : %.3f Hz at t=%.1f s\n", rep.Nadir, rep.NadirTime)
	if rep.Recovered {
		fmt.Fprintf(w, "Time to recovery     : %.1f s after the fault\n", rep.TimeToRecovery)
	} else {
		fmt.Fprintln(w, "Time to recovery     : not restored")
	}
	fmt.Fprintf(w, "Final deviation      : %+.4f Hz\n", rep.FinalDeviation)
	fmt.Fprintf(w, "Max. import          : %.0f MW\n", rep.MaxImport/1e6)
	fmt.Fprintf(w, "Physical inertia     : %.2f s\n", rep.PhysicalInertia)
	fmt.Fprintf(w, "Artificial inertia   : %.2f s (BESS RoCoF term)\n", rep.ArtificialInertia)
	fmt.Fprintf(w, "Effective inertia    : %.2f s (RoCoF %.3f Hz/s)\n", rep.EffectiveInertia, rep.InitialRoCoF)
	s := rep.SupportAtNadir
	fmt.Fprintf(w, "Support at nadir     : %.0f MW (FCR %.0f, reserves %.0f, import %.0f)\n",
		s.Total()/1e6, s.FCR/1e6, s.Reserves/1e6, s.Import/1e6)

	if ts == nil || ts.TotalEvents == 0 {
		return
	}
	fmt.Fprintln(w, "=== Control Events ===")
	fmt.Fprintf(w, "Events               : %d\n", ts.TotalEvents)
	sources := make([]string, 0, len(ts.FirstActivation))
	for src := range ts.FirstActivation {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		return ts.FirstActivation[sources[i]] < ts.FirstActivation[sources[j]]
	})
	for _, src := range sources {
		fmt.Fprintf(w, "  %-18s : first output at t=%.1f s\n", src, ts.FirstActivation[src])
	}
	if ts.FirstHandoverAt >= 0 {
		fmt.Fprintf(w, "Handover start       : t=%.1f s (%d starts)\n", ts.FirstHandoverAt, ts.HandoverStarts)
	}
	fmt.Fprintf(w, "Share target changes : %d\n", ts.ShareTargetFlips)
}
