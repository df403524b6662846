package main

import (
	"context"
	"fmt"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/producerapp"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the producer",
	Long: `Starts the producer process, which will:
1. Load the active subscription set from MongoDB
2. Poll the Polymarket Gamma API for fresh market data
3. Detect conviction changes per market
4. Publish detected changes to Kafka`,
	RunE: runProducer,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runProducer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProducerConfig()
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

	application, err := producerapp.New(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
