package main

import (
	"context"
	"fmt"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/injestorapp"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the injestor",
	Long: `Starts the injestor process, which will:
1. Consume conviction-change events from Kafka
2. Persist the latest per-market state and the full event history into Couchbase`,
	RunE: runInjestor,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runInjestor(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadInjestorConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := injestorapp.New(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
