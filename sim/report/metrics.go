package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reserve-sim/reserve-sim/sim/kpi"
)

const metricsNamespace = "reserve_sim"

// MetricsRegistry registers one gauge per KPI, labelled with runID, plus a
// per-source gauge of first activation times.
func MetricsRegistry(rep *kpi.Report, runID string) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": runID}

	recovered := 0.0
	if rep.Recovered {
		recovered = 1
	}
	gauges := []struct {
		name, help string
		value      float64
	}{
		{"nadir_hz", "Lowest main-area frequency.", rep.Nadir},
		{"nadir_time_seconds", "Time of the frequency nadir.", rep.NadirTime},
		{"recovered", "1 if the frequency re-entered the restoration tolerance after the nadir.", recovered},
		{"time_to_recovery_seconds", "Time from the fault to restoration; 0 if not restored.", rep.TimeToRecovery},
		{"final_deviation_hz", "Main-area frequency deviation at the horizon.", rep.FinalDeviation},
		{"max_import_watts", "Largest tie-line import into the main area.", rep.MaxImport},
		{"physical_inertia_seconds", "Configured inertia constant of the main area.", rep.PhysicalInertia},
		{"artificial_inertia_seconds", "Inertia emulated by the BESS RoCoF term.", rep.ArtificialInertia},
		{"effective_inertia_seconds", "Inertia inferred from the initial RoCoF.", rep.EffectiveInertia},
		{"initial_rocof_hz_per_second", "Average RoCoF over the first second after the fault.", rep.InitialRoCoF},
		{"nadir_support_fcr_watts", "Main-area FCR at the nadir.", rep.SupportAtNadir.FCR},
		{"nadir_support_reserves_watts", "BESS, conventional and mFRR output at the nadir.", rep.SupportAtNadir.Reserves},
		{"nadir_support_import_watts", "Tie-line import at the nadir.", rep.SupportAtNadir.Import},
	}
	for _, g := range gauges {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        g.name,
			Help:        g.help,
			ConstLabels: labels,
		})
		gauge.Set(g.value)
		if err := reg.Register(gauge); err != nil {
			return nil, fmt.Errorf("registering %s: %w", g.name, err)
		}
	}

	activation := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "first_activation_seconds",
		Help:        "Time a reserve source first left zero output.",
		ConstLabels: labels,
	}, []string{"source"})
	for src, t := range rep.FirstActivation {
		activation.WithLabelValues(src).Set(t)
	}
	if err := reg.Register(activation); err != nil {
		return nil, fmt.Errorf("registering first_activation_seconds: %w", err)
	}
	return reg, nil
}

// SaveMetrics writes the KPI gauges to path in the Prometheus text format, for
// pickup by the node exporter textfile collector.
func SaveMetrics(path string, rep *kpi.Report, runID string) error {
	reg, err := MetricsRegistry(rep, runID)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
