package sim

import (
	"fmt"
	"math"
)

// AreaConfig groups the swing-equation parameters of one control area.
type AreaConfig struct {
	SBase   float64 `yaml:"s_base"`  // base power (W)
	Inertia float64 `yaml:"inertia"` // inertia constant H (s)
	Damping float64 `yaml:"damping"` // load damping D (per Hz)
}

// GridConfig groups the two areas and the tie line between them.
type GridConfig struct {
	F0           float64    `yaml:"f0"`             // nominal frequency (Hz)
	Main         AreaConfig `yaml:"main"`           // faulted area
	Neighbour    AreaConfig `yaml:"neighbour"`      // interconnected area
	TieCapacity  float64    `yaml:"tie_capacity"`   // T12, max tie flow magnitude (W)
	TieSyncCoeff float64    `yaml:"tie_sync_coeff"` // synchronising coefficient (W per Hz·s)
}

// FaultConfig describes the single generation loss of a run.
type FaultConfig struct {
	PLoss  float64 `yaml:"p_loss"`  // lost generation (W)
	TFault float64 `yaml:"t_fault"` // onset (s)
}

// SourceConfig holds rating, activation delay (after fault onset) and ramp rate of a reserve source.
type SourceConfig struct {
	PMax  float64 `yaml:"p_max"` // W
	Delay float64 `yaml:"delay"` // s
	Ramp  float64 `yaml:"ramp"`  // W/s
}

// ReserveConfig groups the ramped reserve sources.
type ReserveConfig struct {
	BESS          SourceConfig `yaml:"bess"`
	PumpedStorage SourceConfig `yaml:"pumped_storage"`
	GasTurbine1   SourceConfig `yaml:"gas_turbine_1"`
	GasTurbine2   SourceConfig `yaml:"gas_turbine_2"`
	MFRR          SourceConfig `yaml:"mfrr"`
}

// AFRRCapacity is the combined rating of the sources serving the aFRR request.
func (r ReserveConfig) AFRRCapacity() float64 {
	return r.BESS.PMax + r.PumpedStorage.PMax + r.GasTurbine1.PMax + r.GasTurbine2.PMax
}

// FCRConfig groups the primary droop parameters of both areas.
type FCRConfig struct {
	MainMax          float64 `yaml:"main_max"`           // W
	NeighbourMax     float64 `yaml:"neighbour_max"`      // W
	FullActivationDf float64 `yaml:"full_activation_df"` // Hz at which FCR is fully deployed
	Tau              float64 `yaml:"tau"`                // lag time constant (s), shared by both areas
}

// AGCConfig groups the secondary controller parameters.
// Zero limits are derived from the reserve ratings, see AGCLimits.
type AGCConfig struct {
	Ki           float64 `yaml:"ki"`
	Bias         float64 `yaml:"bias"`          // W/Hz
	MaxDischarge float64 `yaml:"max_discharge"` // W, 0 = AFRRCapacity
	MaxCharge    float64 `yaml:"max_charge"`    // W, 0 = BESS rating
}

// HandoverConfig groups the aFRR→mFRR handover parameters.
type HandoverConfig struct {
	RestoreTolHz  float64 `yaml:"restore_tol_hz"`
	LambdaRise    float64 `yaml:"lambda_rise"` // 1/s
	LambdaFall    float64 `yaml:"lambda_fall"` // 1/s
	ACEThreshold  float64 `yaml:"ace_threshold"`
	UtilThreshold float64 `yaml:"util_threshold"`
}

// BESSConfig groups the battery control and storage parameters.
// Rating, delay and upward ramp live in ReserveConfig.BESS.
type BESSConfig struct {
	KDamp           float64  `yaml:"k_damp"`   // W/Hz
	KRocof          float64  `yaml:"k_rocof"`  // W/(Hz/s)
	Deadband        float64  `yaml:"deadband"` // Hz
	Headroom        float64  `yaml:"headroom"` // usable SoC band, centred on 0.5
	EnergyMWh       float64  `yaml:"energy_mwh"`
	Efficiency      float64  `yaml:"efficiency"`
	DfCloseHz       float64  `yaml:"df_close_hz"`
	TrimCap         float64  `yaml:"trim_cap"` // W
	ShareTrimMax    float64  `yaml:"share_trim_max"`
	DfTrimIn        float64  `yaml:"df_trim_in"`
	MinAssistSec    float64  `yaml:"min_assist_sec"`
	RampOutMWPerSec float64  `yaml:"ramp_out_mw_per_sec"`
	ShareFallRate   float64  `yaml:"share_fall_rate"` // 1/s
	ShareRiseRate   float64  `yaml:"share_rise_rate"` // 1/s
	InitialSoC      float64  `yaml:"initial_soc"`
	Mode            BESSMode `yaml:"mode"`
}

// TimeConfig sets the discretisation.
type TimeConfig struct {
	Horizon float64 `yaml:"horizon"` // T (s)
	Dt      float64 `yaml:"dt"`      // s
}

// Config is the full parameter set of one run. It is read-only while the simulation runs.
type Config struct {
	Grid     GridConfig     `yaml:"grid"`
	Fault    FaultConfig    `yaml:"fault"`
	Reserves ReserveConfig  `yaml:"reserves"`
	FCR      FCRConfig      `yaml:"fcr"`
	AGC      AGCConfig      `yaml:"agc"`
	Handover HandoverConfig `yaml:"handover"`
	BESS     BESSConfig     `yaml:"bess"`
	Time     TimeConfig     `yaml:"time"`
}

// DefaultConfig returns the documented defaults: a 3 GW loss at t=1s in a
// 60 GW area coupled to a 60 GW neighbour, simulated for 3000s at dt=0.1s.
func DefaultConfig() Config {
	return Config{
		Grid: GridConfig{
			F0:           50.0,
			Main:         AreaConfig{SBase: 60e9, Inertia: 3.5, Damping: 1.0},
			Neighbour:    AreaConfig{SBase: 60e9, Inertia: 4.0, Damping: 1.2},
			TieCapacity:  2000e6,
			TieSyncCoeff: 2e9,
		},
		Fault: FaultConfig{PLoss: 3000e6, TFault: 1.0},
		Reserves: ReserveConfig{
			BESS:          SourceConfig{PMax: 250e6, Delay: 0.1, Ramp: 1200e6},
			PumpedStorage: SourceConfig{PMax: 600e6, Delay: 10.0, Ramp: 12e6},
			GasTurbine1:   SourceConfig{PMax: 1500e6, Delay: 20.0, Ramp: 0.5e6},
			GasTurbine2:   SourceConfig{PMax: 1000e6, Delay: 25.0, Ramp: 0.5e6},
			MFRR:          SourceConfig{PMax: 1500e6, Delay: 300.0, Ramp: 2e6},
		},
		FCR: FCRConfig{MainMax: 800e6, NeighbourMax: 1200e6, FullActivationDf: 0.2, Tau: 12.0},
		AGC: AGCConfig{Ki: 0.08, Bias: 1500e6 / 0.1},
		Handover: HandoverConfig{
			RestoreTolHz:  0.02,
			LambdaRise:    1 / 300.0,
			LambdaFall:    1 / 120.0,
			ACEThreshold:  400e6,
			UtilThreshold: 0.60,
		},
		BESS: BESSConfig{
			KDamp:           6e9,
			KRocof:          1e9,
			Deadband:        0.005,
			Headroom:        0.85,
			EnergyMWh:       800.0,
			Efficiency:      0.97,
			DfCloseHz:       0.05,
			TrimCap:         100e6,
			ShareTrimMax:    0.4,
			DfTrimIn:        0.05,
			MinAssistSec:    60.0,
			RampOutMWPerSec: 1.0,
			ShareFallRate:   1 / 30.0,
			ShareRiseRate:   1 / 120.0,
			InitialSoC:      0.5,
			Mode:            ModeAFRRAndDamping,
		},
		Time: TimeConfig{Horizon: 3000.0, Dt: 0.1},
	}
}

// NumSteps is the number of discrete samples, including t=0 and t=Horizon.
func (c *Config) NumSteps() int {
	return int(math.Round(c.Time.Horizon/c.Time.Dt)) + 1
}

// AGCLimits resolves the integrator clamp, substituting derived values for zero limits.
func (c *Config) AGCLimits() (maxCharge, maxDischarge float64) {
	maxCharge, maxDischarge = c.AGC.MaxCharge, c.AGC.MaxDischarge
	if maxCharge == 0 {
		maxCharge = c.Reserves.BESS.PMax
	}
	if maxDischarge == 0 {
		maxDischarge = c.Reserves.AFRRCapacity()
	}
	return maxCharge, maxDischarge
}

// Validate checks parameter ranges. The simulator itself never calls it:
// loaders call it before handing a Config to NewSimulator.
func (c *Config) Validate() error {
	if c.Time.Dt <= 0 {
		return fmt.Errorf("time.dt must be positive, got %f", c.Time.Dt)
	}
	if c.Time.Horizon < c.Time.Dt {
		return fmt.Errorf("time.horizon must be at least one step (%f), got %f", c.Time.Dt, c.Time.Horizon)
	}
	if c.Fault.TFault < 0 || c.Fault.TFault > c.Time.Horizon {
		return fmt.Errorf("fault.t_fault must lie within [0, %f], got %f", c.Time.Horizon, c.Fault.TFault)
	}
	if c.Grid.F0 <= 0 {
		return fmt.Errorf("grid.f0 must be positive, got %f", c.Grid.F0)
	}
	for name, a := range map[string]AreaConfig{"main": c.Grid.Main, "neighbour": c.Grid.Neighbour} {
		if a.SBase <= 0 || a.Inertia <= 0 {
			return fmt.Errorf("grid.%s: s_base and inertia must be positive, got %f and %f", name, a.SBase, a.Inertia)
		}
		if a.Damping < 0 {
			return fmt.Errorf("grid.%s.damping must be non-negative, got %f", name, a.Damping)
		}
	}
	if c.Grid.TieCapacity < 0 || c.Grid.TieSyncCoeff < 0 {
		return fmt.Errorf("grid tie parameters must be non-negative")
	}
	sources := map[string]SourceConfig{
		"bess":           c.Reserves.BESS,
		"pumped_storage": c.Reserves.PumpedStorage,
		"gas_turbine_1":  c.Reserves.GasTurbine1,
		"gas_turbine_2":  c.Reserves.GasTurbine2,
		"mfrr":           c.Reserves.MFRR,
	}
	for name, s := range sources {
		if s.PMax < 0 || s.Delay < 0 || s.Ramp < 0 {
			return fmt.Errorf("reserves.%s: p_max, delay and ramp must be non-negative, got %f, %f, %f", name, s.PMax, s.Delay, s.Ramp)
		}
	}
	if c.FCR.MainMax < 0 || c.FCR.NeighbourMax < 0 {
		return fmt.Errorf("fcr ratings must be non-negative")
	}
	if c.FCR.FullActivationDf <= 0 || c.FCR.Tau <= 0 {
		return fmt.Errorf("fcr.full_activation_df and fcr.tau must be positive")
	}
	if c.AGC.MaxCharge < 0 || c.AGC.MaxDischarge < 0 {
		return fmt.Errorf("agc limits must be non-negative")
	}
	if c.Handover.LambdaRise < 0 || c.Handover.LambdaFall < 0 {
		return fmt.Errorf("handover rates must be non-negative")
	}
	if c.BESS.Headroom <= 0 || c.BESS.Headroom > 1 {
		return fmt.Errorf("bess.headroom must be in (0, 1], got %f", c.BESS.Headroom)
	}
	if c.BESS.Efficiency <= 0 || c.BESS.Efficiency > 1 {
		return fmt.Errorf("bess.efficiency must be in (0, 1], got %f", c.BESS.Efficiency)
	}
	if c.BESS.EnergyMWh <= 0 {
		return fmt.Errorf("bess.energy_mwh must be positive, got %f", c.BESS.EnergyMWh)
	}
	if c.BESS.RampOutMWPerSec < 0 || c.BESS.ShareFallRate < 0 || c.BESS.ShareRiseRate < 0 {
		return fmt.Errorf("bess ramp and share rates must be non-negative")
	}
	if c.BESS.ShareTrimMax < 0 || c.BESS.ShareTrimMax > 1 {
		return fmt.Errorf("bess.share_trim_max must be in [0, 1], got %f", c.BESS.ShareTrimMax)
	}
	if lo, hi := 0.5-c.BESS.Headroom/2, 0.5+c.BESS.Headroom/2; c.BESS.InitialSoC < lo || c.BESS.InitialSoC > hi {
		return fmt.Errorf("bess.initial_soc must lie within [%f, %f], got %f", lo, hi, c.BESS.InitialSoC)
	}
	if !IsValidBESSMode(string(c.BESS.Mode)) {
		return fmt.Errorf("unknown bess.mode %q", c.BESS.Mode)
	}
	return nil
}
