package sim

// Reserve source names, used in trace events and exported column names.
const (
	SourceBESS          = "bess"
	SourcePumpedStorage = "pumped_storage"
	SourceGasTurbine1   = "gas_turbine_1"
	SourceGasTurbine2   = "gas_turbine_2"
	SourceMFRR          = "mfrr"
)

// SourceNames lists the ramped reserve sources in dispatch order, BESS first.
func SourceNames() []string {
	return []string{SourceBESS, SourcePumpedStorage, SourceGasTurbine1, SourceGasTurbine2, SourceMFRR}
}

// SourcePower returns the logged output series of a named source, or nil.
func (s *Series) SourcePower(name string) []float64 {
	switch name {
	case SourceBESS:
		return s.BESS
	case SourcePumpedStorage:
		return s.PumpedStorage
	case SourceGasTurbine1:
		return s.GasTurbine1
	case SourceGasTurbine2:
		return s.GasTurbine2
	case SourceMFRR:
		return s.MFRR
	}
	return nil
}

// livePower returns the live output of a named source.
func (l *Live) livePower(name string) float64 {
	switch name {
	case SourceBESS:
		return l.BESS
	case SourcePumpedStorage:
		return l.PumpedStorage
	case SourceGasTurbine1:
		return l.GasTurbine1
	case SourceGasTurbine2:
		return l.GasTurbine2
	case SourceMFRR:
		return l.MFRR
	}
	return 0
}
