package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reserve-sim/reserve-sim/sim"
)

// defaultsCmd prints the default scenario as YAML, ready to edit and pass to --config.
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default scenario as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := sim.DefaultConfig()
		data, err := sim.MarshalConfig(&cfg)
		if err != nil {
			logrus.Fatalf("Failed to render defaults: %v", err)
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			logrus.Fatalf("Failed to write defaults: %v", err)
		}
	},
}
