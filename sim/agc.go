package sim

import "math"

// AFRRRequest is the output of the secondary/tertiary stage: the aFRR request
// forwarded to the fast sources after handover, and the mFRR output this step.
// It carries the FCR output of the same step so later stages can only be
// invoked with values produced upstream.
type AFRRRequest struct {
	FCR     FCROutput
	ACE     float64 // W
	Raw     float64 // integrator output before handover scaling (W)
	Request float64 // (1-λ)·Raw (W)
	Lambda  float64
	MFRR    float64 // W
}

// AGC is the integral secondary controller together with the aFRR→mFRR handover.
type AGC struct {
	agc          AGCConfig
	handover     HandoverConfig
	mfrr         SourceConfig
	mfrrTarget   float64 // λ=1 mFRR set-point: min(p_loss, mFRR rating)
	tFault       float64
	dt           float64
	maxCharge    float64
	maxDischarge float64
	afrrCapacity float64
}

// NewAGC resolves the integrator limits and the full mFRR set-point from cfg.
func NewAGC(cfg *Config) *AGC {
	maxCharge, maxDischarge := cfg.AGCLimits()
	return &AGC{
		agc:          cfg.AGC,
		handover:     cfg.Handover,
		mfrr:         cfg.Reserves.MFRR,
		mfrrTarget:   min(cfg.Fault.PLoss, cfg.Reserves.MFRR.PMax),
		tFault:       cfg.Fault.TFault,
		dt:           cfg.Time.Dt,
		maxCharge:    maxCharge,
		maxDischarge: maxDischarge,
		afrrCapacity: cfg.Reserves.AFRRCapacity(),
	}
}

// integrate adds Ki·ACE·dt to the integral and clamps it (anti-windup by saturation).
func (a *AGC) integrate(st *State, df, tie float64) (raw, ace float64) {
	ace = -(a.agc.Bias*df + tie)
	st.Live.AGCIntegral += a.agc.Ki * ace * a.dt
	st.Live.AGCIntegral = clip(st.Live.AGCIntegral, -a.maxCharge, a.maxDischarge)
	return st.Live.AGCIntegral, ace
}

// sustained reports whether the aFRR effort is large enough to hand over:
// the integral exceeds the ACE threshold, or the previous step's aFRR
// dispatch uses more than the utilisation threshold of the aFRR capacity.
func (a *AGC) sustained(st *State, k int) bool {
	if math.Abs(st.Live.AGCIntegral) > a.handover.ACEThreshold {
		return true
	}
	var dispatched float64
	if k > 0 {
		dispatched = st.BESS[k-1] + st.PumpedStorage[k-1] + st.GasTurbine1[k-1] + st.GasTurbine2[k-1]
	}
	return math.Abs(dispatched)/a.afrrCapacity > a.handover.UtilThreshold
}

// handoverActive is the λ rise condition: frequency restored, effort
// sustained, and the mFRR activation delay elapsed.
func (a *AGC) handoverActive(st *State, k int, df float64) bool {
	restored := math.Abs(df) <= a.handover.RestoreTolHz
	return restored && a.sustained(st, k) && st.Time[k]-a.tFault >= a.mfrr.Delay
}

// Step runs the integral controller and the handover for step k. The mFRR
// output only ramps up; every increase is taken out of the integral so the
// fast sources are not asked for power mFRR now supplies.
func (a *AGC) Step(st *State, k int, df float64, fcr FCROutput) AFRRRequest {
	raw, ace := a.integrate(st, df, st.Tie[k])

	if a.handoverActive(st, k, df) {
		st.Live.Lambda = min(1.0, st.Live.Lambda+a.handover.LambdaRise*a.dt)
	} else {
		st.Live.Lambda = max(0.0, st.Live.Lambda-a.handover.LambdaFall*a.dt)
	}
	request := (1.0 - st.Live.Lambda) * raw

	target := st.Live.Lambda * a.mfrrTarget
	change := clip(target-st.Live.MFRR, 0.0, a.mfrr.Ramp*a.dt)
	st.Live.MFRR += change
	st.Live.AGCIntegral -= change

	st.ACE[k] = ace
	st.Lambda[k] = st.Live.Lambda
	st.AFRRRequest[k] = request
	st.MFRR[k] = st.Live.MFRR

	return AFRRRequest{
		FCR:     fcr,
		ACE:     ace,
		Raw:     raw,
		Request: request,
		Lambda:  st.Live.Lambda,
		MFRR:    st.Live.MFRR,
	}
}
