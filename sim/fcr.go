package sim

// FCROutput is the lag-filtered primary response of both areas for one step.
type FCROutput struct {
	Main      float64 // W
	Neighbour float64 // W
}

// FCR computes the droop response of both areas through a first-order lag.
type FCR struct {
	cfg           FCRConfig
	dt            float64
	gainMain      float64 // W/Hz
	gainNeighbour float64 // W/Hz
}

// NewFCR derives the droop gains from the ratings and the full-activation deviation.
func NewFCR(cfg FCRConfig, dt float64) *FCR {
	return &FCR{
		cfg:           cfg,
		dt:            dt,
		gainMain:      cfg.MainMax / cfg.FullActivationDf,
		gainNeighbour: cfg.NeighbourMax / cfg.FullActivationDf,
	}
}

// Step advances both lag filters toward their droop targets and records them at k.
func (f *FCR) Step(st *State, k int, df, dfNeighbour float64) FCROutput {
	targetMain := clip(-f.gainMain*df, -f.cfg.MainMax, f.cfg.MainMax)
	st.Live.FCRMain += (f.dt / f.cfg.Tau) * (targetMain - st.Live.FCRMain)
	st.FCRMain[k] = st.Live.FCRMain

	targetNeighbour := clip(-f.gainNeighbour*dfNeighbour, -f.cfg.NeighbourMax, f.cfg.NeighbourMax)
	st.Live.FCRNeighbour += (f.dt / f.cfg.Tau) * (targetNeighbour - st.Live.FCRNeighbour)
	st.FCRNeighbour[k] = st.Live.FCRNeighbour

	return FCROutput{Main: st.Live.FCRMain, Neighbour: st.Live.FCRNeighbour}
}
