package sim

// Series holds the logged history of every simulated quantity, indexed by step.
// Each slot is written once, by the stage that owns the quantity.
type Series struct {
	FMain         []float64 // Hz
	FNeighbour    []float64 // Hz
	BESS          []float64 // W, positive = discharge
	PumpedStorage []float64
	GasTurbine1   []float64
	GasTurbine2   []float64
	MFRR          []float64
	Tie           []float64 // W, positive = export from the main area
	FCRMain       []float64
	FCRNeighbour  []float64
	Total         []float64 // BESS + conventional + mFRR
	BESSShare     []float64
	SoC           []float64
	Lambda        []float64
	AFRRRequest   []float64 // request forwarded to the fast sources after handover
	ACE           []float64
}

// Live holds the stateful memory of each actor, carried from step to step.
type Live struct {
	BESS          float64
	PumpedStorage float64
	GasTurbine1   float64
	GasTurbine2   float64
	MFRR          float64
	FCRMain       float64
	FCRNeighbour  float64
	PrevDf        float64
	Lambda        float64 // handover fraction, in [0,1]
	BESSShare     float64 // BESS aFRR share, in [0,1]
	AGCIntegral   float64
}

// State is the mutable record of one run, owned by the Simulator.
type State struct {
	Time []float64
	Series
	Live   Live
	SoCMin float64
	SoCMax float64
}

// NewState allocates zero-filled series for cfg.NumSteps() steps, sets the
// frequencies to F0, SoC[0] to the initial SoC and all actors at rest.
func NewState(cfg *Config) *State {
	n := cfg.NumSteps()
	st := &State{
		Time: make([]float64, n),
		Series: Series{
			FMain:         make([]float64, n),
			FNeighbour:    make([]float64, n),
			BESS:          make([]float64, n),
			PumpedStorage: make([]float64, n),
			GasTurbine1:   make([]float64, n),
			GasTurbine2:   make([]float64, n),
			MFRR:          make([]float64, n),
			Tie:           make([]float64, n),
			FCRMain:       make([]float64, n),
			FCRNeighbour:  make([]float64, n),
			Total:         make([]float64, n),
			BESSShare:     make([]float64, n),
			SoC:           make([]float64, n),
			Lambda:        make([]float64, n),
			AFRRRequest:   make([]float64, n),
			ACE:           make([]float64, n),
		},
		Live:   Live{BESSShare: 1.0},
		SoCMin: 0.5 - cfg.BESS.Headroom/2,
		SoCMax: 0.5 + cfg.BESS.Headroom/2,
	}
	for k := range st.Time {
		st.Time[k] = float64(k) * cfg.Time.Dt
		st.FMain[k] = cfg.Grid.F0
		st.FNeighbour[k] = cfg.Grid.F0
	}
	st.SoC[0] = cfg.BESS.InitialSoC
	return st
}

// Len is the number of steps.
func (st *State) Len() int { return len(st.Time) }

// finalizable lists the series whose last slot is never produced by the
// forward-difference loop. Frequencies and the tie flow are excluded: their
// slot n-1 is integrated at step n-2.
func (st *State) finalizable() [][]float64 {
	return [][]float64{
		st.BESS, st.PumpedStorage, st.GasTurbine1, st.GasTurbine2, st.MFRR,
		st.FCRMain, st.FCRNeighbour, st.Total, st.BESSShare, st.SoC,
		st.Lambda, st.AFRRRequest, st.ACE,
	}
}

// finalize copies the penultimate value into the last slot of each series.
func (st *State) finalize() {
	n := st.Len()
	if n < 2 {
		return
	}
	for _, s := range st.finalizable() {
		s[n-1] = s[n-2]
	}
}
