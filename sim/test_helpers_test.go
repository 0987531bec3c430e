package sim

// newTestState returns the default config and a fresh state for it, with the
// SoC held at its initial value in every slot so a component can be stepped
// at any k without running the steps before it.
func newTestState() (*Config, *State) {
	cfg := DefaultConfig()
	st := NewState(&cfg)
	for k := range st.SoC {
		st.SoC[k] = cfg.BESS.InitialSoC
	}
	return &cfg, st
}

// stepAt returns the step index whose time is t for the default dt.
func stepAt(st *State, t float64) int {
	for k, tk := range st.Time {
		if tk >= t-1e-9 {
			return k
		}
	}
	return len(st.Time) - 1
}
