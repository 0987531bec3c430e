package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents      int
	CountsByKind     map[EventKind]int
	FirstActivation  map[string]float64 // source → time of first non-zero output (s)
	HandoverStarts   int
	FirstHandoverAt  float64 // s, -1 if λ never left zero
	ShareTargetFlips int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		CountsByKind:    make(map[EventKind]int),
		FirstActivation: make(map[string]float64),
		FirstHandoverAt: -1,
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.CountsByKind[e.Kind]++
		switch e.Kind {
		case KindActivation:
			if _, seen := summary.FirstActivation[e.Source]; !seen {
				summary.FirstActivation[e.Source] = e.Time
			}
		case KindHandoverStart:
			if summary.HandoverStarts == 0 {
				summary.FirstHandoverAt = e.Time
			}
			summary.HandoverStarts++
		case KindShareTarget:
			summary.ShareTargetFlips++
		}
	}
	return summary
}
