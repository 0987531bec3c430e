package sim

// DispatchOutput adds the conventional cascade result to the aFRR request.
type DispatchOutput struct {
	AFRRRequest
	PumpedStorage float64 // W
	GasTurbine1   float64 // W
	GasTurbine2   float64 // W
	Residual      float64 // positive request left after the whole cascade (W)
}

// cascadeStage binds one conventional source to its live value and its history.
type cascadeStage struct {
	name   string
	src    SourceConfig
	live   func(*Live) *float64
	series func(*Series) []float64
}

// Dispatcher splits the positive aFRR residual across the slow sources in
// fixed priority order: pumped storage, gas turbine 1, gas turbine 2.
type Dispatcher struct {
	stages []cascadeStage
	tFault float64
	dt     float64
}

// NewDispatcher builds the cascade in priority order.
func NewDispatcher(cfg *Config) *Dispatcher {
	return &Dispatcher{
		stages: []cascadeStage{
			{
				name:   SourcePumpedStorage,
				src:    cfg.Reserves.PumpedStorage,
				live:   func(l *Live) *float64 { return &l.PumpedStorage },
				series: func(s *Series) []float64 { return s.PumpedStorage },
			},
			{
				name:   SourceGasTurbine1,
				src:    cfg.Reserves.GasTurbine1,
				live:   func(l *Live) *float64 { return &l.GasTurbine1 },
				series: func(s *Series) []float64 { return s.GasTurbine1 },
			},
			{
				name:   SourceGasTurbine2,
				src:    cfg.Reserves.GasTurbine2,
				live:   func(l *Live) *float64 { return &l.GasTurbine2 },
				series: func(s *Series) []float64 { return s.GasTurbine2 },
			},
		},
		tFault: cfg.Fault.TFault,
		dt:     cfg.Time.Dt,
	}
}

// Step dispatches the request left after the battery. The battery runs later
// in the same step, so the residual is taken against its live power carried
// over from step k-1. Only injection is dispatched; each source sees at most
// what the higher-priority sources left.
func (d *Dispatcher) Step(st *State, k int, req AFRRRequest) DispatchOutput {
	residual := max(0.0, req.Request-st.Live.BESS)
	out := DispatchOutput{AFRRRequest: req}

	for _, stage := range d.stages {
		target := 0.0
		if st.Time[k] >= d.tFault+stage.src.Delay {
			target = min(residual, stage.src.PMax)
		}
		live := stage.live(&st.Live)
		step := stage.src.Ramp * d.dt
		*live += clip(target-*live, -step, step)
		stage.series(&st.Series)[k] = *live
		residual = max(0.0, residual-*live)
	}

	out.PumpedStorage = st.Live.PumpedStorage
	out.GasTurbine1 = st.Live.GasTurbine1
	out.GasTurbine2 = st.Live.GasTurbine2
	out.Residual = residual
	return out
}
