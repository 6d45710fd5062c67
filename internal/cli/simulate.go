package cli

import (
	"github.com/spf13/cobra"

	"smartbin-backend/internal/app"
)

var simulateBridge bool

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Push simulated sensor readings to the live store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		bridge := a.Config.Simulator.Bridge
		if cmd.Flags().Changed("bridge") {
			bridge = simulateBridge
		}
		return a.Simulate(cmd.Context(), app.SimulateOptions{Bridge: bridge})
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateBridge, "bridge", true, "Also relay readings into the telemetry history")
}
