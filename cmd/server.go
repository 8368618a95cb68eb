package cmd

import (
	"github.com/spf13/cobra"

	"github.com/curaious/timesheet/internal/api"
	"github.com/curaious/timesheet/internal/config"
	"github.com/curaious/timesheet/internal/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()

		shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT, conf.OTEL_SERVICE_NAME)
		defer shutdownTelemetry()

		s := api.New(conf)
		s.Start()
	},
}

// Register the "server" command
func init() {
	rootCmd.AddCommand(serverCmd)
}
