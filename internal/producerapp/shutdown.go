package producerapp

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if err := a.publisher.Flush(shutdownTimeout); err != nil {
		a.logger.Error("publisher-flush-error", zap.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("publisher-close-error", zap.Error(err))
	}

	if err := a.subscriptions.Close(shutdownCtx); err != nil {
		a.logger.Error("subscription-store-close-error", zap.Error(err))
	}

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")
	return nil
}
