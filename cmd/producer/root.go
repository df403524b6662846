package main

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "producer",
	Short: "Polymarket conviction-change producer",
	Long: `Polymarket conviction-change producer.

Polls the Polymarket Gamma API for the markets currently recorded in the
subscription store, evaluates each one for a significant swing in its YES
price, and publishes a conviction-change event to Kafka whenever one is
detected.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
