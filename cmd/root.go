package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reserve-sim/reserve-sim/sim"
	"github.com/reserve-sim/reserve-sim/sim/kpi"
	"github.com/reserve-sim/reserve-sim/sim/report"
	"github.com/reserve-sim/reserve-sim/sim/trace"
)

var (
	// Scenario
	configPath string       // YAML scenario file; flags below override it
	horizon    float64      // Simulated time T (s)
	dt         float64      // Step size (s)
	pLoss      float64      // Lost generation (MW)
	tFault     float64      // Fault onset (s)
	bessMode   sim.BESSMode // BESS control mode

	// Output
	logLevel    string  // Log verbosity level
	traceLevel  string  // Control-event tracing
	csvPath     string  // Time-series CSV
	eventsPath  string  // Control-event CSV
	plotPath    string  // PNG panels
	plotEnd     float64 // Last time shown in the plot (s), 0 = horizon
	metricsPath string  // Prometheus textfile
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "reserve-sim",
	Short: "Two-area frequency control simulator with FCR, aFRR, mFRR and BESS",
}

// runCmd executes one scenario using the config file and CLI overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a generation loss and report frequency KPIs",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q; valid: none, events", traceLevel)
		}
		traceCfg := trace.TraceConfig{Level: trace.TraceLevel(traceLevel)}
		if eventsPath != "" && !traceCfg.Enabled() {
			logrus.Fatalf("--events-csv requires --trace-level events")
		}

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		runID := uuid.NewString()
		log := logrus.WithField("run_id", runID)
		log.Infof("Starting simulation: %.0f MW lost at t=%.1fs, horizon=%.0fs, dt=%gs, BESS mode %s",
			cfg.Fault.PLoss/1e6, cfg.Fault.TFault, cfg.Time.Horizon, cfg.Time.Dt, cfg.BESS.Mode)
		start := time.Now()

		res := sim.NewSimulator(cfg, traceCfg).Run()
		rep := kpi.Compute(res)
		var summary *trace.TraceSummary
		if res.Trace != nil {
			summary = trace.Summarize(res.Trace)
		}
		report.PrintSummary(cmd.OutOrStdout(), rep, summary)

		if err := writeOutputs(res, rep, runID); err != nil {
			log.Fatalf("Writing outputs: %v", err)
		}
		log.Infof("Simulation complete in %s", time.Since(start).Round(time.Millisecond))
	},
}

// resolveConfig loads the scenario file, if any, applies the flags the user
// set explicitly and validates the result.
func resolveConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("horizon") {
		cfg.Time.Horizon = horizon
	}
	if flags.Changed("dt") {
		cfg.Time.Dt = dt
	}
	if flags.Changed("p-loss") {
		cfg.Fault.PLoss = pLoss * 1e6
	}
	if flags.Changed("t-fault") {
		cfg.Fault.TFault = tFault
	}
	if flags.Changed("bess-mode") {
		cfg.BESS.Mode = bessMode
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid scenario: %w", err)
	}
	return cfg, nil
}

// writeOutputs writes every requested output file.
func writeOutputs(res *sim.Result, rep *kpi.Report, runID string) error {
	if csvPath != "" {
		if err := report.SaveCSV(csvPath, res); err != nil {
			return err
		}
		logrus.Infof("Time series written to %s", csvPath)
	}
	if eventsPath != "" && res.Trace != nil {
		if err := report.SaveEventsCSV(eventsPath, res.Trace.Events); err != nil {
			return err
		}
		logrus.Infof("%d control events written to %s", len(res.Trace.Events), eventsPath)
	}
	if plotPath != "" {
		if err := report.SavePlot(plotPath, res, plotEnd); err != nil {
			return err
		}
		logrus.Infof("Plot written to %s", plotPath)
	}
	if metricsPath != "" {
		if err := report.SaveMetrics(metricsPath, rep, runID); err != nil {
			return err
		}
		logrus.Infof("Metrics written to %s", metricsPath)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to cmd and resets them to their defaults.
func registerRunFlags(cmd *cobra.Command) {
	defaults := sim.DefaultConfig()
	bessMode = defaults.BESS.Mode

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML scenario file (see reserve-sim defaults)")
	cmd.Flags().Float64Var(&horizon, "horizon", defaults.Time.Horizon, "Simulated time (s)")
	cmd.Flags().Float64Var(&dt, "dt", defaults.Time.Dt, "Step size (s)")
	cmd.Flags().Float64Var(&pLoss, "p-loss", defaults.Fault.PLoss/1e6, "Lost generation (MW); negative for a load loss")
	cmd.Flags().Float64Var(&tFault, "t-fault", defaults.Fault.TFault, "Fault onset (s)")
	cmd.Flags().Var(&bessMode, "bess-mode", fmt.Sprintf("BESS control mode %v", sim.ValidBESSModeNames()))

	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Control-event tracing (none, events)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write all time series to this CSV file")
	cmd.Flags().StringVar(&eventsPath, "events-csv", "", "Write traced control events to this CSV file")
	cmd.Flags().StringVar(&plotPath, "plot", "", "Write the stacked result panels to this PNG file")
	cmd.Flags().Float64Var(&plotEnd, "plot-end", 0, "Last time shown in the plot (s); 0 plots the whole horizon")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Write KPI gauges to this Prometheus textfile")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
