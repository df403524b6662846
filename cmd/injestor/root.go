package main

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "injestor",
	Short: "Polymarket conviction-event injestor",
	Long: `Polymarket conviction-event injestor.

Consumes conviction-change events published to Kafka by the producer and
persists them into Couchbase: the latest state per market, and an
immutable history record per event.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
