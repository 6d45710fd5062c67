package cli

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API with the telemetry relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Serve(cmd.Context())
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run only the telemetry relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RunRelay(cmd.Context())
	},
}
