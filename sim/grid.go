package sim

// GridOutput is the end of the per-step pipeline: the power balance applied to
// both swing equations.
type GridOutput struct {
	BESSOutput
	Total        float64 // W, all ramped reserves in the main area
	NetMain      float64 // W
	NetNeighbour float64 // W
}

// Grid integrates the two-area swing equation and the tie line.
type Grid struct {
	cfg   GridConfig
	fault FaultConfig
	dt    float64
}

// NewGrid builds the grid model from cfg.
func NewGrid(cfg *Config) *Grid {
	return &Grid{cfg: cfg.Grid, fault: cfg.Fault, dt: cfg.Time.Dt}
}

// derivative is the swing equation in per-unit power: F0/(2H)·net/S − D·Δf/(2H).
func (g *Grid) derivative(area AreaConfig, net, df float64) float64 {
	return (g.cfg.F0/(2*area.Inertia))*(net/area.SBase) - (area.Damping*df)/(2*area.Inertia)
}

// Step balances step k and writes f[k+1] for both areas, then tie[k+1].
func (g *Grid) Step(st *State, k int, df, dfNeighbour float64, in BESSOutput) GridOutput {
	total := in.Power + in.PumpedStorage + in.GasTurbine1 + in.GasTurbine2 + in.MFRR
	st.Total[k] = total

	var loss float64
	if st.Time[k] >= g.fault.TFault {
		loss = g.fault.PLoss
	}
	tie := st.Tie[k]
	netMain := -loss + total + in.FCR.Main - tie
	netNeighbour := tie + in.FCR.Neighbour

	st.FMain[k+1] = st.FMain[k] + g.derivative(g.cfg.Main, netMain, df)*g.dt
	st.FNeighbour[k+1] = st.FNeighbour[k] + g.derivative(g.cfg.Neighbour, netNeighbour, dfNeighbour)*g.dt

	// Synchronising power follows the angle difference, integrated from the
	// frequencies just computed.
	sync := g.cfg.TieSyncCoeff * (st.FMain[k+1] - st.FNeighbour[k+1]) * g.dt
	st.Tie[k+1] = clip(tie+sync, -g.cfg.TieCapacity, g.cfg.TieCapacity)

	return GridOutput{
		BESSOutput:   in,
		Total:        total,
		NetMain:      netMain,
		NetNeighbour: netNeighbour,
	}
}
