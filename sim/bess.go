package sim

import (
	"fmt"
	"math"
)

// socCapEpsilon keeps the capability derating finite at zero headroom.
const socCapEpsilon = 1e-9

// BESSOutput is the battery's contribution for one step, on top of the
// conventional dispatch it was computed after.
type BESSOutput struct {
	DispatchOutput
	Power        float64 // W, positive = discharge
	Share        float64
	ShareTarget  float64
	Damping      float64 // W, damping + RoCoF term before blending
	CapCharge    float64 // W
	CapDischarge float64 // W
	SoC          float64 // SoC at the start of the step
}

// Battery is the fast reserve: a share of the aFRR request, synthetic
// damping and RoCoF response, SoC-aware capability and asymmetric ramps.
type Battery struct {
	cfg    BESSConfig
	src    SourceConfig
	tFault float64
	dt     float64
}

// NewBattery builds the battery controller from cfg.
func NewBattery(cfg *Config) *Battery {
	return &Battery{
		cfg:    cfg.BESS,
		src:    cfg.Reserves.BESS,
		tFault: cfg.Fault.TFault,
		dt:     cfg.Time.Dt,
	}
}

// shareTarget picks the battery's aFRR share. Rules in priority order:
// full share right after the fault, trimmed share close to nominal, no share
// once the slow sources carry more than three times the battery rating,
// otherwise full share.
func (b *Battery) shareTarget(st *State, k int, df float64) float64 {
	if st.Time[k]-b.tFault < b.cfg.MinAssistSec {
		return 1.0
	}
	if math.Abs(df) <= b.cfg.DfTrimIn {
		return b.cfg.ShareTrimMax
	}
	var slow float64
	if k > 0 {
		slow = st.PumpedStorage[k-1] + st.GasTurbine1[k-1] + st.GasTurbine2[k-1]
	}
	if slow > 3*b.src.PMax {
		return 0.0
	}
	return 1.0
}

// moveShare slews the live share toward target; falling is faster than rising.
func (b *Battery) moveShare(st *State, target float64) float64 {
	share := st.Live.BESSShare
	switch {
	case target < share:
		share = max(target, share-b.cfg.ShareFallRate*b.dt)
	case target > share:
		share = min(target, share+b.cfg.ShareRiseRate*b.dt)
	}
	st.Live.BESSShare = share
	return share
}

// capability derates the charge and discharge limits as the SoC approaches
// the band edges. Both are non-negative.
func (b *Battery) capability(soc, socMin, socMax float64) (capCharge, capDischarge float64) {
	half := b.cfg.Headroom/2 + socCapEpsilon
	up := max(0.0, socMax-soc)
	down := max(0.0, soc-socMin)
	capCharge = b.src.PMax * min(1.0, up/half)
	capDischarge = b.src.PMax * min(1.0, down/half)
	return capCharge, capDischarge
}

// command blends the aFRR share and the damping term according to the mode.
func (b *Battery) command(afrr, damp, share float64) float64 {
	switch b.cfg.Mode {
	case ModeAFRRAndDamping:
		return afrr + damp
	case ModeOff:
		return 0.0
	case ModeShareScaledDamping:
		return afrr + damp*share
	default:
		panic(fmt.Sprintf("unhandled BESS mode %q", b.cfg.Mode))
	}
}

// Step computes the battery power for step k, records it and advances the SoC
// into slot k+1.
func (b *Battery) Step(st *State, k int, df, rocof float64, disp DispatchOutput) BESSOutput {
	target := b.shareTarget(st, k, df)
	share := b.moveShare(st, target)
	st.BESSShare[k] = share

	var damp float64
	if math.Abs(df) > b.cfg.Deadband {
		damp = -b.cfg.KDamp*df - b.cfg.KRocof*rocof
	}

	afrr := clip(disp.Request, -b.src.PMax, b.src.PMax) * share
	if math.Abs(df) <= b.cfg.DfCloseHz {
		afrr = clip(afrr, -b.cfg.TrimCap, b.cfg.TrimCap)
	}

	soc := st.SoC[k]
	capCharge, capDischarge := b.capability(soc, st.SoCMin, st.SoCMax)
	cmd := clip(b.command(afrr, damp, share), -capCharge, capDischarge)

	if st.Time[k] < b.tFault+b.src.Delay {
		cmd = 0.0
	}
	st.Live.BESS += clip(cmd-st.Live.BESS, -b.cfg.RampOutMWPerSec*1e6*b.dt, b.src.Ramp*b.dt)
	st.Live.BESS = clip(st.Live.BESS, -capCharge, capDischarge)
	st.BESS[k] = st.Live.BESS

	b.updateSoC(st, k)

	return BESSOutput{
		DispatchOutput: disp,
		Power:          st.Live.BESS,
		Share:          share,
		ShareTarget:    target,
		Damping:        damp,
		CapCharge:      capCharge,
		CapDischarge:   capDischarge,
		SoC:            soc,
	}
}

// updateSoC integrates the energy drawn in step k. Discharge divides by the
// efficiency, charge multiplies by it.
func (b *Battery) updateSoC(st *State, k int) {
	dE := st.BESS[k] / 1e6 * b.dt / 3600 // MWh
	eff := b.cfg.Efficiency
	if dE < 0 {
		eff = 1 / eff
	}
	st.SoC[k+1] = clip(st.SoC[k]-dE/(b.cfg.EnergyMWh*eff), st.SoCMin, st.SoCMax)
}
