// Package trace provides control-event recording for reserve activation analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventKind classifies a control event.
type EventKind string

const (
	// KindActivation marks the first step a reserve source injects non-zero power.
	KindActivation EventKind = "activation"
	// KindHandoverStart marks λ leaving zero.
	KindHandoverStart EventKind = "handover-start"
	// KindHandoverComplete marks λ reaching one.
	KindHandoverComplete EventKind = "handover-complete"
	// KindHandoverRelease marks λ falling back to zero.
	KindHandoverRelease EventKind = "handover-release"
	// KindShareTarget marks a change of the BESS share target.
	KindShareTarget EventKind = "share-target"
	// KindSoCLimit marks the SoC reaching one of its bounds.
	KindSoCLimit EventKind = "soc-limit"
)

// EventRecord captures a single control event.
type EventRecord struct {
	Step   int
	Time   float64 // s
	Kind   EventKind
	Source string  // reserve source name, empty for system-level events
	Value  float64 // power (W), fraction or SoC depending on Kind
	Reason string
}
